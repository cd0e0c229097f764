// Package storage defines interfaces for object storage operations.
//
// This package provides abstractions for reading order files from and
// writing encoded tables to various storage backends (S3, GCS, Azure Blob,
// local filesystem).
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore reads and writes whole objects addressed by bucket and key.
type ObjectStore interface {
	// Get returns the full contents of the object.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put uploads body as the object and returns the number of bytes written.
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (int64, error)

	// Backend returns the backend name used in logs and metrics (e.g. "s3").
	Backend() string

	// Close releases resources. Calls after Close fail.
	Close() error
}

// KeyRouter determines the output object key for an invocation.
type KeyRouter interface {
	// Route returns the object key for a file written at now with the given extension.
	Route(now time.Time, ext string) string
}
