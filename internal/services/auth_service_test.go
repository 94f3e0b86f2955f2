package services_test

import (
	"fmt"
	"testing"

	"jooba/internal/identity"
	"jooba/internal/models"
	"jooba/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of identity.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(email, password string) (string, error) {
	args := m.Called(email, password)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SignIn(email, password string) (map[string]any, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockProvider) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	mockProvider := new(MockProvider)
	mockStore := new(MockStore)
	authService := services.NewAuthService(mockProvider, mockStore)

	// Successful registration mirrors {email, uid} under users/<uid>.
	mockProvider.On("SignUp", "a@x.com", "pw123456").Return("uid-1", nil).Once()
	mockStore.On("Set", "users/uid-1", models.User{UID: "uid-1", Email: "a@x.com"}).Return(nil).Once()

	uid, err := authService.Register("a@x.com", "pw123456")
	assert.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	mockProvider.AssertExpectations(t)
	mockStore.AssertExpectations(t)

	// Duplicate email keeps the sentinel and writes nothing.
	mockProvider.On("SignUp", "a@x.com", "pw123456").Return("", identity.ErrEmailExists).Once()
	_, err = authService.Register("a@x.com", "pw123456")
	assert.ErrorIs(t, err, identity.ErrEmailExists)
	mockStore.AssertNumberOfCalls(t, "Set", 1)

	// A store failure after account creation surfaces as an upstream error.
	mockProvider.On("SignUp", "b@x.com", "pw123456").Return("uid-2", nil).Once()
	mockStore.On("Set", "users/uid-2", mock.Anything).Return(fmt.Errorf("write refused")).Once()
	_, err = authService.Register("b@x.com", "pw123456")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "write refused")
	mockProvider.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestAuthService_LoginPassesPayloadThrough(t *testing.T) {
	mockProvider := new(MockProvider)
	mockStore := new(MockStore)
	authService := services.NewAuthService(mockProvider, mockStore)

	payload := map[string]any{
		"idToken": "signed-token",
		"localId": "uid-1",
		"email":   "a@x.com",
	}
	mockProvider.On("SignIn", "a@x.com", "pw123456").Return(payload, nil).Once()

	got, err := authService.Login("a@x.com", "pw123456")
	assert.NoError(t, err)
	assert.Equal(t, payload, got)

	// Exchange failures pass through verbatim, wrong password included.
	mockProvider.On("SignIn", "a@x.com", "wrong").Return(nil, fmt.Errorf("INVALID_PASSWORD")).Once()
	_, err = authService.Login("a@x.com", "wrong")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_PASSWORD")
	mockProvider.AssertExpectations(t)
}
