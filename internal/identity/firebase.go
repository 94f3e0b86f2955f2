package identity

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	securetokenCertURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	securetokenIssuer  = "https://securetoken.google.com/"

	certRefreshInterval = time.Hour
)

// FirebaseProvider delegates credential management to the Google Identity
// Toolkit REST API and verifies ID tokens locally against Google's rotating
// securetoken signing certificates.
type FirebaseProvider struct {
	apiKey    string
	projectID string
	client    *http.Client

	apiURL  string
	certURL string

	mu          sync.Mutex
	certs       map[string]*rsa.PublicKey
	certFetched time.Time
}

// NewFirebaseProvider creates a provider for the given web API key and
// project id. A nil client falls back to http.DefaultClient.
func NewFirebaseProvider(apiKey, projectID string, client *http.Client) *FirebaseProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &FirebaseProvider{
		apiKey:    apiKey,
		projectID: projectID,
		client:    client,
		apiURL:    identityToolkitURL,
		certURL:   securetokenCertURL,
	}
}

// SignUp creates an account via the accounts:signUp endpoint.
func (p *FirebaseProvider) SignUp(email, password string) (string, error) {
	payload, err := p.post("accounts:signUp", email, password)
	if err != nil {
		return "", err
	}
	uid, _ := payload["localId"].(string)
	if uid == "" {
		return "", fmt.Errorf("identity provider returned no uid")
	}
	return uid, nil
}

// SignIn exchanges credentials via accounts:signInWithPassword and returns
// the provider payload verbatim, signed session token included.
func (p *FirebaseProvider) SignIn(email, password string) (map[string]any, error) {
	return p.post("accounts:signInWithPassword", email, password)
}

// VerifyToken validates a Firebase ID token: RS256 signature against the
// current securetoken certificates plus audience and issuer checks.
func (p *FirebaseProvider) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return p.signingKey(kid)
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if aud, _ := claims["aud"].(string); aud != p.projectID {
		return "", fmt.Errorf("token has wrong audience")
	}
	if iss, _ := claims["iss"].(string); iss != securetokenIssuer+p.projectID {
		return "", fmt.Errorf("token has wrong issuer")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// post calls an Identity Toolkit account endpoint with the shared
// email/password request shape.
func (p *FirebaseProvider) post(endpoint, email, password string) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", p.apiURL, endpoint, p.apiKey)
	resp, err := p.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			if apiErr.Error.Message == "EMAIL_EXISTS" {
				return nil, ErrEmailExists
			}
			return nil, fmt.Errorf("identity provider error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode identity provider response: %w", err)
	}
	return payload, nil
}

// signingKey returns the public key for kid, refreshing the certificate set
// when it is stale or the kid is unknown (Google rotates keys regularly).
func (p *FirebaseProvider) signingKey(kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stale := time.Since(p.certFetched) > certRefreshInterval
	if key, ok := p.certs[kid]; ok && !stale {
		return key, nil
	}

	if err := p.refreshCertsLocked(); err != nil {
		return nil, err
	}
	key, ok := p.certs[kid]
	if !ok {
		return nil, fmt.Errorf("no signing certificate for key id %s", kid)
	}
	return key, nil
}

func (p *FirebaseProvider) refreshCertsLocked() error {
	resp, err := p.client.Get(p.certURL)
	if err != nil {
		return fmt.Errorf("failed to fetch signing certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certificate endpoint returned status %d", resp.StatusCode)
	}

	var pems map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pems); err != nil {
		return fmt.Errorf("failed to decode signing certificates: %w", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(pems))
	for kid, certPEM := range pems {
		block, _ := pem.Decode([]byte(certPEM))
		if block == nil {
			return fmt.Errorf("malformed certificate for key id %s", kid)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse certificate for key id %s: %w", kid, err)
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("certificate for key id %s is not RSA", kid)
		}
		certs[kid] = pub
	}

	p.certs = certs
	p.certFetched = time.Now()
	return nil
}
