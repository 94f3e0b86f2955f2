package identity

import (
	"fmt"
	"time"

	"jooba/internal/store"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const credentialsPath = "credentials"

// localCredential is the stored account record of the local provider.
// The hash never leaves this package.
type localCredential struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// LocalProvider is a self-contained identity provider for development and
// tests. Credentials are bcrypt-hashed and persisted through the document
// store; session tokens are HS256 JWTs shaped like the remote provider's
// sign-in payload.
type LocalProvider struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
}

// NewLocalProvider creates a provider signing tokens with secret.
func NewLocalProvider(st store.Store, secret string, tokenTTL time.Duration) *LocalProvider {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	return &LocalProvider{
		store:    st,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// SignUp registers a new account, rejecting duplicate emails.
func (p *LocalProvider) SignUp(email, password string) (string, error) {
	existing := make(map[string]localCredential)
	if err := p.store.FilterEqual(credentialsPath, "email", email, &existing); err != nil {
		return "", fmt.Errorf("failed to look up email: %w", err)
	}
	if len(existing) > 0 {
		return "", ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	uid := uuid.New().String()
	cred := localCredential{
		UID:          uid,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.store.Set(credentialsPath+"/"+uid, cred); err != nil {
		return "", fmt.Errorf("failed to store credentials: %w", err)
	}
	return uid, nil
}

// SignIn verifies the password and mints a session token. The payload
// mirrors the remote provider's sign-in response shape.
func (p *LocalProvider) SignIn(email, password string) (map[string]any, error) {
	matches := make(map[string]localCredential)
	if err := p.store.FilterEqual(credentialsPath, "email", email, &matches); err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	var cred localCredential
	for _, c := range matches {
		cred = c
	}
	if cred.UID == "" {
		return nil, fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   cred.UID,
		"email": cred.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return map[string]any{
		"idToken":   signed,
		"email":     cred.Email,
		"localId":   cred.UID,
		"expiresIn": fmt.Sprintf("%d", int(p.tokenTTL.Seconds())),
	}, nil
}

// VerifyToken validates an HS256 session token and returns its subject.
func (p *LocalProvider) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
