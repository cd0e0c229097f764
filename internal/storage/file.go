// Package storage implements object store backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jittakal/ordersetl/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.ObjectStore = (*FileStore)(nil)

// FileConfig contains local filesystem configuration.
type FileConfig struct {
	BasePath string
}

// FileStore implements storage.ObjectStore on a local directory tree laid
// out as <base_path>/<bucket>/<key>. It serves local runs and tests.
type FileStore struct {
	base
	basePath string
}

// NewFileStore creates a new filesystem object store.
func NewFileStore(cfg FileConfig, logger *slog.Logger, metrics MetricsCollector) (*FileStore, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("file base path is required")
	}
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	store := &FileStore{
		base:     newBase(BackendFile, "file", logger, metrics),
		basePath: cfg.BasePath,
	}
	store.logger.Info("filesystem store created", "base_path", cfg.BasePath)
	return store, nil
}

// path maps bucket and key to a file path, refusing keys that escape the bucket.
func (s *FileStore) path(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	root := filepath.Join(s.basePath, bucket)
	full := filepath.Join(root, filepath.FromSlash(key))
	if full == root || !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return full, nil
}

// Get reads the object from disk.
func (s *FileStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := s.check("get", bucket, key); err != nil {
		return nil, err
	}
	defer s.observe("get", time.Now())

	full, err := s.path(bucket, key)
	if err != nil {
		return nil, s.fail("get", bucket, key, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, s.fail("get", bucket, key, err)
	}
	return data, nil
}

// Put writes body to disk, creating parent directories.
func (s *FileStore) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (int64, error) {
	if err := s.check("put", bucket, key); err != nil {
		return 0, err
	}
	defer s.observe("put", time.Now())

	full, err := s.path(bucket, key)
	if err != nil {
		return 0, s.fail("put", bucket, key, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return 0, s.fail("put", bucket, key, fmt.Errorf("failed to create directory: %w", err))
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, s.fail("put", bucket, key, err)
	}
	n, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		return 0, s.fail("put", bucket, key, err)
	}
	if err := f.Close(); err != nil {
		return 0, s.fail("put", bucket, key, err)
	}

	s.logger.Debug("wrote object to file", "path", full, "size", n, "content_type", contentType)
	return n, nil
}

// Close closes the store.
func (s *FileStore) Close() error {
	s.markClosed()
	return nil
}
