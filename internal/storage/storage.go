// Package storage provides file persistence for uploads and extracted frames.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3 storage.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for persisting uploaded videos and frames.
// Implementations write to local disk and optionally publish objects to S3.
type Storage interface {
	// Save writes data verbatim to dir/name and returns the written path.
	// The directory is created if it does not exist. An existing file at
	// the same path is replaced.
	Save(ctx context.Context, dir, name string, data io.Reader) (path string, err error)

	// Cleanup removes the specified files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error

	// RemoveDir removes a directory and everything below it.
	RemoveDir(ctx context.Context, dir string) error

	// UploadToS3 uploads data to S3 and returns the public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
