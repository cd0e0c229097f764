// Package storage implements Azure Blob object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/jittakal/ordersetl/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.ObjectStore = (*AzureStore)(nil)

// AzureConfig contains Azure Blob Storage configuration.
// Buckets map to containers.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	Endpoint    string
}

// Validate checks the configuration.
func (c AzureConfig) Validate() error {
	if c.AccountName == "" {
		return fmt.Errorf("azure account_name is required")
	}
	if c.AccountKey == "" {
		return fmt.Errorf("azure account_key is required")
	}
	return nil
}

// ConnectionString builds the shared-key connection string.
func (c AzureConfig) ConnectionString() string {
	if c.Endpoint != "" {
		return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;BlobEndpoint=%s",
			c.AccountName, c.AccountKey, c.Endpoint)
	}
	return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		c.AccountName, c.AccountKey)
}

// AzureStore implements storage.ObjectStore for Azure Blob Storage.
type AzureStore struct {
	base
	client *azblob.Client
}

// NewAzureStore creates a new Azure Blob object store.
func NewAzureStore(cfg AzureConfig, logger *slog.Logger, metrics MetricsCollector) (*AzureStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	store := &AzureStore{
		base:   newBase(BackendAzure, "wasbs", logger, metrics),
		client: client,
	}
	store.logger.Info("Azure store created", "account", cfg.AccountName)
	return store, nil
}

// Get downloads the whole blob.
func (s *AzureStore) Get(ctx context.Context, container, blobName string) ([]byte, error) {
	if err := s.check("get", container, blobName); err != nil {
		return nil, err
	}
	defer s.observe("get", time.Now())

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, s.fail("get", container, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.fail("get", container, blobName, fmt.Errorf("failed to read blob: %w", err))
	}
	return data, nil
}

// Put uploads body as a block blob.
func (s *AzureStore) Put(ctx context.Context, container, blobName string, body io.Reader, contentType string) (int64, error) {
	if err := s.check("put", container, blobName); err != nil {
		return 0, err
	}
	defer s.observe("put", time.Now())

	counter := &countingReader{r: body}
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadStream(ctx, container, blobName, counter, opts); err != nil {
		return 0, s.fail("put", container, blobName, fmt.Errorf("failed to upload to Azure Blob: %w", err))
	}

	s.logger.Debug("uploaded blob to Azure", "container", container, "blob", blobName, "size", counter.n)
	return counter.n, nil
}

// Close closes the Azure store.
func (s *AzureStore) Close() error {
	s.markClosed()
	return nil
}
