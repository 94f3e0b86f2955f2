package services

import (
	"errors"
	"fmt"

	"jooba/internal/identity"
	"jooba/internal/models"
	"jooba/internal/store"
)

const usersPath = "users"

// AuthService composes the identity provider with the user mirror kept in
// the document store.
type AuthService struct {
	provider identity.Provider
	store    store.Store
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider identity.Provider, st store.Store) *AuthService {
	return &AuthService{
		provider: provider,
		store:    st,
	}
}

// Register creates the account at the identity provider and mirrors
// {email, uid} into the store under users/<uid>. The provider owns the
// credentials; only the mirror lives here.
func (s *AuthService) Register(email, password string) (string, error) {
	uid, err := s.provider.SignUp(email, password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return "", err
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	user := models.User{UID: uid, Email: email}
	if err := s.store.Set(usersPath+"/"+uid, user); err != nil {
		return "", fmt.Errorf("failed to store user record: %w", err)
	}
	return uid, nil
}

// Login exchanges credentials for the provider's session payload, returned
// verbatim. Any exchange failure, bad password included, surfaces as-is.
func (s *AuthService) Login(email, password string) (map[string]any, error) {
	return s.provider.SignIn(email, password)
}
