package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/ordersetl/internal/catalog"
	"github.com/jittakal/ordersetl/internal/config"
	"github.com/jittakal/ordersetl/internal/config/dto"
	"github.com/jittakal/ordersetl/internal/encoder"
	"github.com/jittakal/ordersetl/internal/observability"
	"github.com/jittakal/ordersetl/internal/pipeline"
	"github.com/jittakal/ordersetl/internal/storage"
	pkgencoder "github.com/jittakal/ordersetl/pkg/encoder"
	pkgstorage "github.com/jittakal/ordersetl/pkg/storage"
)

// previewRows is the number of flattened rows logged per invocation.
const previewRows = 5

// app holds the components shared by every trigger mode.
type app struct {
	config  *dto.ApplicationConfig
	logger  *slog.Logger
	metrics *observability.Metrics
	store   pkgstorage.ObjectStore
	handler *pipeline.Handler

	closers []func() error
}

// loadConfig resolves the config path and loads it.
func loadConfig() (*config.Loader, *dto.ApplicationConfig, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return loader, cfg, nil
}

// newApp wires storage, encoder, router, catalog and the pipeline handler.
// Logs go to logOut when set, otherwise where the configuration says.
func newApp(ctx context.Context, cfg *dto.ApplicationConfig, logOut io.Writer) (_ *app, err error) {
	logCfg := observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	}
	logger := observability.NewLogger(logCfg)
	if logOut != nil {
		logger = observability.NewLoggerTo(logOut, logCfg)
	}
	logger = logger.With(
		"app", cfg.Application.Name,
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
	)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	a := &app{config: cfg, logger: logger, metrics: metrics}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := storage.New(ctx, storageConfig(cfg), logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	a.store = store
	a.addCloser(store.Close)

	enc, err := encoder.NewFactory(pkgencoder.Format(cfg.Storage.Format), cfg.EffectiveCompression()).CreateEncoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	loc, err := cfg.Destination.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid destination timezone: %w", err)
	}
	router := storage.NewRouter(cfg.Destination.Prefix, cfg.Destination.FilePrefix, loc)

	trigger, err := newTrigger(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	a.handler = pipeline.New(store, enc, router, trigger,
		pipeline.Config{
			DestinationBucket: cfg.Destination.Bucket,
			CrawlerName:       cfg.Catalog.CrawlerName,
			PreviewRows:       previewRows,
		},
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	)

	logger.Info("pipeline ready",
		"backend", store.Backend(),
		"format", enc.Format(),
		"compression", cfg.EffectiveCompression(),
		"catalog_enabled", cfg.Catalog.Enabled,
	)
	return a, nil
}

func newTrigger(ctx context.Context, cfg *dto.ApplicationConfig, logger *slog.Logger, metrics *observability.Metrics) (catalog.Trigger, error) {
	if !cfg.Catalog.Enabled {
		return catalog.NewNoopTrigger(logger), nil
	}
	trigger, err := catalog.New(ctx, catalog.Config{
		Provider: cfg.Catalog.Provider,
		Region:   cfg.Catalog.Region,
		Endpoint: cfg.Catalog.Endpoint,
	}, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog trigger: %w", err)
	}
	return trigger, nil
}

func storageConfig(cfg *dto.ApplicationConfig) storage.Config {
	s := cfg.Storage
	return storage.Config{
		Backend: s.Backend,
		S3: storage.S3Config{
			Region:       s.S3.Region,
			Endpoint:     s.S3.Endpoint,
			UsePathStyle: s.S3.UsePathStyle,
			SSEEnabled:   s.S3.SSEEnabled,
			SSEKMSKeyID:  s.S3.SSEKMSKeyID,
		},
		GCS: storage.GCSConfig{
			ProjectID:            s.GCS.ProjectID,
			CredentialsFile:      s.GCS.CredentialsFile,
			CredentialsJSON:      s.GCS.CredentialsJSON,
			Endpoint:             s.GCS.Endpoint,
			UseDefaultCredential: s.GCS.UseDefaultCredential,
		},
		Azure: storage.AzureConfig{
			AccountName: s.Azure.AccountName,
			AccountKey:  s.Azure.AccountKey,
			Endpoint:    s.Azure.Endpoint,
		},
		File: storage.FileConfig{BasePath: s.File.BasePath},
	}
}

func (a *app) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

// pushMetrics sends the registry to the Pushgateway when one is configured.
func (a *app) pushMetrics(ctx context.Context) {
	m := a.config.Observability.Metrics
	if !m.Enabled || m.PushGatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.metrics.Push(ctx, m.PushGatewayURL, m.Job); err != nil {
		a.logger.Warn("failed to push metrics", "error", err)
	}
}

// Close releases components in reverse creation order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
