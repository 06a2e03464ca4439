// Package blob defines the interface for archiving raw agent payloads.
// The archive keeps submitted raw results as received, before any
// normalization; it is best effort and never on the caller's critical
// path.
package blob

import "context"

// Store writes raw artifacts and returns a URI for the stored object.
type Store interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOpStore discards artifacts. Useful for dry runs and tests.
type NoOpStore struct{}

// PutObject for NoOpStore does nothing and returns a placeholder URI.
func (NoOpStore) PutObject(_ context.Context, path string, _ string, _ []byte) (string, error) {
	return "noop://" + path, nil
}
