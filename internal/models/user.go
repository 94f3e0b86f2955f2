package models

// User mirrors an identity-provider account into the document store.
// The provider owns the account; this service never mutates or deletes it.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
