package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader implements Uploader using Google Cloud Storage
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

// Ensure GCSUploader implements Uploader interface
var _ Uploader = (*GCSUploader)(nil)

// GCSConfig holds configuration for the Cloud Storage client
type GCSConfig struct {
	Bucket      string // Bucket name (required)
	Credentials string // Path to service account JSON file (optional)
}

// NewGCSUploader creates a new Cloud Storage uploader
func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSUploader{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Upload writes data to the bucket at the given path, overwriting any
// existing object, and returns the public URL
//
// Parameters:
//   - ctx: Context for cancellation control
//   - data: Object content
//   - path: Object path within the bucket (e.g. "avatars/uid.png")
//   - contentType: MIME type of the content
//
// Returns:
//   - Public URL of the stored object
//   - Error if the write fails
func (u *GCSUploader) Upload(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	w := u.client.Bucket(u.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	// Profile assets are immutable at a given URL only until the owner
	// re-uploads; keep caches short so overwrites propagate.
	w.CacheControl = "public, max-age=300"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", path, err)
	}

	return u.PublicURL(path), nil
}

// Remove deletes the objects at the given paths.
// Missing objects are ignored; other failures are collected.
func (u *GCSUploader) Remove(ctx context.Context, paths ...string) error {
	var errs []error
	for _, path := range paths {
		err := u.client.Bucket(u.bucket).Object(path).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete object %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// PublicURL returns the public URL for an object path in the bucket
func (u *GCSUploader) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, path)
}

// Close releases resources held by the storage client
func (u *GCSUploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}
