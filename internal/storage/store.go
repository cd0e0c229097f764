package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/storage"
)

// MetricsCollector defines metrics operations for storage.
type MetricsCollector interface {
	ObserveStorageDuration(backend, operation string, seconds float64)
	IncStorageErrors(backend, operation string)
}

// Backend names.
const (
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendAzure = "azure"
	BackendFile  = "file"
)

// Config selects and configures one backend.
type Config struct {
	Backend string
	S3      S3Config
	GCS     GCSConfig
	Azure   AzureConfig
	File    FileConfig
}

// New creates the object store named by cfg.Backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger, metrics MetricsCollector) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case BackendS3, "":
		return NewS3Store(ctx, cfg.S3, logger, metrics)
	case BackendGCS:
		return NewGCSStore(ctx, cfg.GCS, logger, metrics)
	case BackendAzure:
		return NewAzureStore(cfg.Azure, logger, metrics)
	case BackendFile:
		return NewFileStore(cfg.File, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// base carries what every backend shares: identity, logging, metrics and
// the closed flag.
type base struct {
	backend string
	scheme  string
	logger  *slog.Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

func newBase(backend, scheme string, logger *slog.Logger, metrics MetricsCollector) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{backend: backend, scheme: scheme, logger: logger, metrics: metrics}
}

// Backend returns the backend name.
func (b *base) Backend() string {
	return b.backend
}

func (b *base) uri(bucket, key string) string {
	return ObjectURI(b.scheme, bucket, key)
}

// check fails fast on a closed store.
func (b *base) check(op, bucket, key string) error {
	if b.closed.Load() {
		return &errors.StorageError{Operation: op, Path: b.uri(bucket, key), Err: errors.ErrStoreClosed}
	}
	return nil
}

func (b *base) fail(op, bucket, key string, err error) error {
	if b.metrics != nil {
		b.metrics.IncStorageErrors(b.backend, op)
	}
	return &errors.StorageError{Operation: op, Path: b.uri(bucket, key), Err: err}
}

func (b *base) observe(op string, start time.Time) {
	if b.metrics != nil {
		b.metrics.ObserveStorageDuration(b.backend, op, time.Since(start).Seconds())
	}
}

func (b *base) markClosed() {
	b.closed.Store(true)
	b.logger.Info("storage closed", "backend", b.backend)
}
