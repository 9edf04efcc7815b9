// Package blob abstracts the media object store that holds uploaded image
// and voice payloads. Production deployments point this at a hosted service;
// the bundled implementation writes to local disk.
package blob

import "io"

// Stored describes a persisted blob: the URL clients fetch it from and the
// provider handle used to delete it later.
type Stored struct {
	URL      string
	PublicID string
}

// Store is implemented by blob providers.
type Store interface {
	// Save persists the content under a provider-chosen handle derived
	// from name and returns where it ended up.
	Save(name string, r io.Reader) (Stored, error)
	// Delete removes a previously stored blob. Callers treat failures as
	// best-effort: a missing blob is not an error.
	Delete(publicID string) error
}
