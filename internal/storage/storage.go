// Package storage provides object storage for user avatars behind a narrow
// interface: upload by path, resolve a public URL.
package storage

import (
	"context"
	"io"
)

// ObjectStore persists uploaded objects and resolves their public URLs.
type ObjectStore interface {
	// Upload writes the object at path, overwriting any existing object.
	Upload(ctx context.Context, path string, contentType string, r io.Reader) error
	// PublicURL returns the URL at which the object at path can be fetched.
	PublicURL(path string) string
}
