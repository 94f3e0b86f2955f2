package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It is the default driver
// and backs the test suite; documents live in a map keyed by full path.
type MemoryStore struct {
	docs map[string]json.RawMessage
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]json.RawMessage),
	}
}

// Get decodes the document at path, or assembles the collection of direct
// children when no document exists at the exact path.
func (s *MemoryStore) Get(path string, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if raw, ok := s.docs[path]; ok {
		return json.Unmarshal(raw, dest)
	}

	children := s.children(path)
	if len(children) == 0 {
		return ErrNotFound
	}
	return decodeInto(children, dest)
}

// Set replaces the document at path, discarding any children below it.
func (s *MemoryStore) Set(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document at %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeSubtree(path)
	s.docs[path] = raw
	return nil
}

// Push stores value under path with a generated key and returns the key.
func (s *MemoryStore) Push(path string, value any) (string, error) {
	key := uuid.New().String()
	if err := s.Set(path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Update merges fields into the document at path, creating it if absent.
func (s *MemoryStore) Update(path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := make(map[string]any)
	if raw, ok := s.docs[path]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode document at %s: %w", path, err)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document at %s: %w", path, err)
	}
	s.docs[path] = raw
	return nil
}

// Delete removes the document at path along with any children. Deleting an
// absent path is not an error, matching the remote store's semantics.
func (s *MemoryStore) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeSubtree(path)
	return nil
}

// FilterEqual collects the children of path whose field equals value.
func (s *MemoryStore) FilterEqual(path, field, value string, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make(map[string]json.RawMessage)
	for key, raw := range s.children(path) {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode document at %s/%s: %w", path, key, err)
		}
		if v, ok := doc[field].(string); ok && v == value {
			matches[key] = raw
		}
	}
	return decodeInto(matches, dest)
}

// children returns the direct child documents of path keyed by child id.
// Caller must hold at least the read lock.
func (s *MemoryStore) children(path string) map[string]json.RawMessage {
	prefix := path + "/"
	children := make(map[string]json.RawMessage)
	for p, raw := range s.docs {
		key, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(key, "/") {
			continue
		}
		children[key] = raw
	}
	return children
}

// removeSubtree drops the document at path and everything below it.
// Caller must hold the write lock.
func (s *MemoryStore) removeSubtree(path string) {
	delete(s.docs, path)
	prefix := path + "/"
	for p := range s.docs {
		if strings.HasPrefix(p, prefix) {
			delete(s.docs, p)
		}
	}
}

// decodeInto round-trips v through JSON into dest, so every driver hands
// callers the same decoding behavior.
func decodeInto(v any, dest any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
