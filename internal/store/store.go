package store

import "errors"

// ErrNotFound is returned when nothing exists at the requested path.
var ErrNotFound = errors.New("path not found")

// Store is a thin adapter over a hierarchical document store. Paths are
// slash-separated ("users/<uid>", "products/<id>"); reading a collection path
// decodes a map keyed by child id into dest. Writes are atomic per path; the
// store is the sole point of concurrent-write arbitration (last write wins).
type Store interface {
	// Get decodes the document or collection at path into dest.
	Get(path string, dest any) error
	// Set writes the full document at path, replacing any existing one.
	Set(path string, value any) error
	// Push appends value under path with a store-generated key.
	Push(path string, value any) (string, error)
	// Update merges fields into the document at path, leaving other fields.
	Update(path string, fields map[string]any) error
	// Delete removes the document (and any children) at path.
	Delete(path string) error
	// FilterEqual decodes into dest the children of path whose field equals
	// value. An empty result is not an error.
	FilterEqual(path, field, value string, dest any) error
}
