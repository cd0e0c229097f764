// Package storage implements Google Cloud Storage object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	pkgstorage "github.com/jittakal/ordersetl/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ pkgstorage.ObjectStore = (*GCSStore)(nil)

// GCSConfig contains Google Cloud Storage configuration.
type GCSConfig struct {
	ProjectID            string
	CredentialsFile      string
	CredentialsJSON      string
	Endpoint             string
	UseDefaultCredential bool
}

// Validate checks the configuration.
func (c GCSConfig) Validate() error {
	if c.CredentialsFile != "" && c.CredentialsJSON != "" {
		return fmt.Errorf("gcs credentials_file and credentials_json are mutually exclusive")
	}
	return nil
}

// clientOptions picks the authentication method.
func (c GCSConfig) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	switch {
	case c.UseDefaultCredential:
	case c.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(c.CredentialsJSON)))
	case c.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return opts
}

// GCSStore implements storage.ObjectStore for Google Cloud Storage.
// It supports service account file, JSON and application default credentials.
type GCSStore struct {
	base
	client *storage.Client
}

// NewGCSStore creates a new Google Cloud Storage object store.
func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *slog.Logger, metrics MetricsCollector) (*GCSStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, cfg.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	store := &GCSStore{
		base:   newBase(BackendGCS, "gs", logger, metrics),
		client: client,
	}
	store.logger.Info("GCS store created",
		"project_id", cfg.ProjectID,
		"endpoint", cfg.Endpoint,
	)
	return store, nil
}

// Get downloads the whole object.
func (s *GCSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := s.check("get", bucket, key); err != nil {
		return nil, err
	}
	defer s.observe("get", time.Now())

	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, s.fail("get", bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, s.fail("get", bucket, key, fmt.Errorf("failed to read object: %w", err))
	}
	return data, nil
}

// Put streams body into a new object version.
func (s *GCSStore) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (int64, error) {
	if err := s.check("put", bucket, key); err != nil {
		return 0, err
	}
	defer s.observe("put", time.Now())

	writer := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	n, err := io.Copy(writer, body)
	if err != nil {
		writer.Close()
		return 0, s.fail("put", bucket, key, fmt.Errorf("failed to write to GCS: %w", err))
	}

	// Close finalizes the upload.
	if err := writer.Close(); err != nil {
		return 0, s.fail("put", bucket, key, fmt.Errorf("failed to close GCS writer: %w", err))
	}

	s.logger.Debug("uploaded object to GCS", "bucket", bucket, "object", key, "size", n)
	return n, nil
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	s.markClosed()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
