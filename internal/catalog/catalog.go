// Package catalog starts the downstream catalog refresh after a file lands.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"

	"github.com/jittakal/ordersetl/internal/errors"
)

// Providers.
const (
	ProviderGlue = "glue"
	ProviderNoop = "noop"
)

// DefaultCrawlerName is the crawler started after every successful upload.
const DefaultCrawlerName = "etl_pipeline_crawler"

// Trigger starts a named crawler.
type Trigger interface {
	// Start requests a crawler run. It does not wait for the crawl.
	Start(ctx context.Context, name string) error
}

// MetricsCollector defines metrics operations for catalog triggers.
type MetricsCollector interface {
	IncCrawlerStarts(status string)
}

// Config selects and configures the trigger.
type Config struct {
	Provider string
	Region   string
	Endpoint string
}

// New creates the trigger named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger, metrics MetricsCollector) (Trigger, error) {
	switch cfg.Provider {
	case ProviderGlue, "":
		return NewGlueTrigger(ctx, cfg, logger, metrics)
	case ProviderNoop:
		return NewNoopTrigger(logger), nil
	default:
		return nil, fmt.Errorf("unsupported catalog provider: %s", cfg.Provider)
	}
}

// glueAPI is the subset of *glue.Client the trigger uses.
type glueAPI interface {
	StartCrawler(ctx context.Context, params *glue.StartCrawlerInput, optFns ...func(*glue.Options)) (*glue.StartCrawlerOutput, error)
}

// GlueTrigger starts AWS Glue crawlers.
type GlueTrigger struct {
	client  glueAPI
	logger  *slog.Logger
	metrics MetricsCollector
}

// NewGlueTrigger creates a Glue trigger using the default AWS credential chain.
func NewGlueTrigger(ctx context.Context, cfg Config, logger *slog.Logger, metrics MetricsCollector) (*GlueTrigger, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := glue.NewFromConfig(awsConfig, func(o *glue.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newGlueTrigger(client, logger, metrics), nil
}

func newGlueTrigger(client glueAPI, logger *slog.Logger, metrics MetricsCollector) *GlueTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlueTrigger{client: client, logger: logger, metrics: metrics}
}

// Start calls StartCrawler. The response is not inspected; a crawler that is
// already running surfaces as an error from the service.
func (g *GlueTrigger) Start(ctx context.Context, name string) error {
	if _, err := g.client.StartCrawler(ctx, &glue.StartCrawlerInput{Name: aws.String(name)}); err != nil {
		g.record("error")
		return &errors.CatalogError{Crawler: name, Err: err}
	}
	g.record("success")
	g.logger.Debug("crawler started", "crawler", name)
	return nil
}

func (g *GlueTrigger) record(status string) {
	if g.metrics != nil {
		g.metrics.IncCrawlerStarts(status)
	}
}

// NoopTrigger only logs. It backs local runs where no catalog exists.
type NoopTrigger struct {
	logger *slog.Logger
}

// NewNoopTrigger creates a trigger that never fails.
func NewNoopTrigger(logger *slog.Logger) *NoopTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopTrigger{logger: logger}
}

// Start logs the crawler name.
func (n *NoopTrigger) Start(ctx context.Context, name string) error {
	n.logger.Info("catalog trigger disabled, skipping crawler", "crawler", name)
	return nil
}
