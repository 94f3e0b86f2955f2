package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FirebaseStore talks to a Firebase Realtime Database over its REST API.
// Every path maps to "<baseURL>/<path>.json"; single-field equality queries
// use the orderBy/equalTo parameters. Timeouts are whatever the injected
// HTTP client carries; this layer configures none of its own.
type FirebaseStore struct {
	baseURL string
	client  *http.Client
}

// NewFirebaseStore creates a store for the database at baseURL. A nil client
// falls back to http.DefaultClient.
func NewFirebaseStore(baseURL string, client *http.Client) *FirebaseStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &FirebaseStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Get decodes the value at path. The database returns the JSON literal null
// for absent paths, which maps to ErrNotFound.
func (s *FirebaseStore) Get(path string, dest any) error {
	raw, err := s.do(http.MethodGet, s.refURL(path), nil)
	if err != nil {
		return err
	}
	if isNull(raw) {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

// Set writes value at path, replacing the whole subtree.
func (s *FirebaseStore) Set(path string, value any) error {
	_, err := s.do(http.MethodPut, s.refURL(path), value)
	return err
}

// Push appends value under path; the database generates and returns the key.
func (s *FirebaseStore) Push(path string, value any) (string, error) {
	raw, err := s.do(http.MethodPost, s.refURL(path), value)
	if err != nil {
		return "", err
	}
	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to decode push response for %s: %w", path, err)
	}
	return resp.Name, nil
}

// Update patches fields into the value at path, leaving other fields alone.
func (s *FirebaseStore) Update(path string, fields map[string]any) error {
	_, err := s.do(http.MethodPatch, s.refURL(path), fields)
	return err
}

// Delete removes the value at path. Absent paths delete successfully.
func (s *FirebaseStore) Delete(path string) error {
	_, err := s.do(http.MethodDelete, s.refURL(path), nil)
	return err
}

// FilterEqual runs a server-side equality query on a single child field.
func (s *FirebaseStore) FilterEqual(path, field, value string, dest any) error {
	params := url.Values{}
	params.Set("orderBy", fmt.Sprintf("%q", field))
	params.Set("equalTo", fmt.Sprintf("%q", value))
	raw, err := s.do(http.MethodGet, s.refURL(path)+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if isNull(raw) {
		raw = []byte("{}")
	}
	return json.Unmarshal(raw, dest)
}

func (s *FirebaseStore) refURL(path string) string {
	return s.baseURL + "/" + strings.Trim(path, "/") + ".json"
}

func (s *FirebaseStore) do(method, rawURL string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build database request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("database request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read database response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var dbErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &dbErr) == nil && dbErr.Error != "" {
			return nil, fmt.Errorf("database error: %s", dbErr.Error)
		}
		return nil, fmt.Errorf("database returned status %d", resp.StatusCode)
	}
	return raw, nil
}

func isNull(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
