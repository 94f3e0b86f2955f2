package identity_test

import (
	"testing"
	"time"

	"jooba/internal/identity"
	"jooba/internal/store"

	"github.com/stretchr/testify/assert"
)

func newLocalProvider(ttl time.Duration) *identity.LocalProvider {
	return identity.NewLocalProvider(store.NewMemoryStore(), "test_jwt_secret", ttl)
}

func TestLocalProvider_SignUpAndSignIn(t *testing.T) {
	p := newLocalProvider(time.Hour)

	uid, err := p.SignUp("a@x.com", "pw123456")
	assert.NoError(t, err)
	assert.NotEmpty(t, uid)

	// Duplicate email is rejected with the sentinel.
	_, err = p.SignUp("a@x.com", "otherpassword")
	assert.ErrorIs(t, err, identity.ErrEmailExists)

	// Wrong password fails the exchange.
	_, err = p.SignIn("a@x.com", "wrongpassword")
	assert.Error(t, err)

	// Unknown email fails the same way as a wrong password.
	_, err = p.SignIn("b@x.com", "pw123456")
	assert.Error(t, err)

	payload, err := p.SignIn("a@x.com", "pw123456")
	assert.NoError(t, err)
	assert.Equal(t, uid, payload["localId"])
	assert.Equal(t, "a@x.com", payload["email"])
	assert.NotEmpty(t, payload["idToken"])
}

func TestLocalProvider_VerifyToken(t *testing.T) {
	p := newLocalProvider(time.Hour)

	uid, err := p.SignUp("a@x.com", "pw123456")
	assert.NoError(t, err)
	payload, err := p.SignIn("a@x.com", "pw123456")
	assert.NoError(t, err)

	got, err := p.VerifyToken(payload["idToken"].(string))
	assert.NoError(t, err)
	assert.Equal(t, uid, got)

	// Garbage tokens fail.
	_, err = p.VerifyToken("not.a.token")
	assert.Error(t, err)

	// Tokens signed with a different secret fail.
	other := identity.NewLocalProvider(store.NewMemoryStore(), "other_secret", time.Hour)
	_, err = other.SignUp("a@x.com", "pw123456")
	assert.NoError(t, err)
	otherPayload, err := other.SignIn("a@x.com", "pw123456")
	assert.NoError(t, err)
	_, err = p.VerifyToken(otherPayload["idToken"].(string))
	assert.Error(t, err)
}

func TestLocalProvider_ExpiredToken(t *testing.T) {
	p := newLocalProvider(-time.Minute)

	_, err := p.SignUp("a@x.com", "pw123456")
	assert.NoError(t, err)
	payload, err := p.SignIn("a@x.com", "pw123456")
	assert.NoError(t, err)

	_, err = p.VerifyToken(payload["idToken"].(string))
	assert.Error(t, err)
}
