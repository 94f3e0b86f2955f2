package identity

import "errors"

// ErrEmailExists is returned by SignUp when the email is already registered.
var ErrEmailExists = errors.New("user with this email already exists")

// Provider is the external identity service that owns credential issuance
// and verification. This service never validates email format or password
// strength itself.
type Provider interface {
	// SignUp creates an account and returns its stable uid.
	SignUp(email, password string) (string, error)
	// SignIn exchanges credentials for the provider's raw session payload,
	// returned verbatim to the caller.
	SignIn(email, password string) (map[string]any, error)
	// VerifyToken validates a bearer token and returns the subject uid.
	// Expired, malformed, revoked and wrongly signed tokens all fail the
	// same way; callers must not branch on the failure sub-type.
	VerifyToken(token string) (string, error)
}
