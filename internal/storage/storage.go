// Package storage provides object storage for profile assets
// (avatar images and generated QR codes).
package storage

import (
	"context"
)

// Uploader stores binary assets and returns their public URLs.
// Uploading to an existing path overwrites the previous object,
// so per-owner paths stay stable across re-uploads.
type Uploader interface {
	// Upload writes data to the given path with the given content type
	// and returns the public URL of the stored object.
	Upload(ctx context.Context, data []byte, path string, contentType string) (string, error)

	// Remove deletes the objects at the given paths.
	// Missing objects are not an error.
	Remove(ctx context.Context, paths ...string) error
}
