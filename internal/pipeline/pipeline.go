// Package pipeline runs one orders ETL invocation: fetch the object named by
// a storage notification, flatten it, encode it, upload it and start the
// catalog crawler.
package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/jittakal/ordersetl/internal/catalog"
	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/internal/flatten"
	"github.com/jittakal/ordersetl/internal/validator"
	"github.com/jittakal/ordersetl/pkg/encoder"
	"github.com/jittakal/ordersetl/pkg/event"
	"github.com/jittakal/ordersetl/pkg/storage"
)

// Response bodies.
const (
	MessageNoData  = "No data to process."
	MessageSuccess = "File processed and crawler started successfully!"
)

// Invocation results used as metric labels.
const (
	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultError   = "error"
)

// Response is the invocation result returned to the trigger.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// MetricsCollector defines metrics operations for invocations.
type MetricsCollector interface {
	IncInvocations(result string)
	AddOrdersRead(n int)
	AddRowsFlattened(n int)
	ObserveStage(stage string, seconds float64)
	IncFilesWritten(backend, format, status string)
	ObserveFileSize(format string, size float64)
}

// Config holds per-deployment settings.
type Config struct {
	// DestinationBucket receives the output file. Empty means the source bucket.
	DestinationBucket string
	CrawlerName       string
	// PreviewRows is the number of leading rows logged after flattening.
	PreviewRows int
}

// Handler processes storage notifications. It holds no per-invocation state,
// so one Handler serves every invocation of a process.
type Handler struct {
	store     storage.ObjectStore
	encoder   encoder.Encoder
	router    storage.KeyRouter
	trigger   catalog.Trigger
	validator *validator.S3EventValidator
	config    Config
	logger    *slog.Logger
	metrics   MetricsCollector
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// WithClock sets the clock used to name output files.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a handler.
func New(
	store storage.ObjectStore,
	enc encoder.Encoder,
	router storage.KeyRouter,
	trigger catalog.Trigger,
	config Config,
	opts ...Option,
) *Handler {
	if config.CrawlerName == "" {
		config.CrawlerName = catalog.DefaultCrawlerName
	}
	h := &Handler{
		store:     store,
		encoder:   enc,
		router:    router,
		trigger:   trigger,
		validator: validator.NewS3EventValidator(),
		config:    config,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one invocation. Only the first record of e is processed.
//
// A failure at any step ends the invocation; the error is logged here and
// returned as is. Nothing already written is cleaned up, so a crawler
// failure leaves the uploaded file in place.
func (h *Handler) Handle(ctx context.Context, e event.S3Event) (resp Response, err error) {
	logger := h.logger
	defer func() {
		if err != nil {
			logger.Error("invocation failed", "error", err, "stage", errors.Stage(err))
			h.incInvocations(ResultError)
		}
	}()

	if err := h.validator.Validate(&e); err != nil {
		return Response{}, err
	}
	loc, err := event.Source(e)
	if err != nil {
		return Response{}, err
	}
	logger = logger.With("source", loc.String())
	logger.Info("processing object")

	start := time.Now()
	data, err := h.store.Get(ctx, loc.Bucket, loc.Key)
	h.observe(errors.StageSource, start)
	if err != nil {
		return Response{}, err
	}

	start = time.Now()
	tbl, orders, err := flatten.FlattenJSON(data)
	h.observe(errors.StageSchema, start)
	if err != nil {
		return Response{}, err
	}

	rows, cols := tbl.Shape()
	if h.metrics != nil {
		h.metrics.AddOrdersRead(orders)
		h.metrics.AddRowsFlattened(rows)
	}
	logger.Info("flattened orders",
		"orders", orders,
		"rows", rows,
		"columns", cols,
		"head", tbl.Head(h.config.PreviewRows),
	)

	if tbl.Empty() {
		logger.Info(MessageNoData)
		h.incInvocations(ResultEmpty)
		return Response{StatusCode: 200, Body: MessageNoData}, nil
	}

	start = time.Now()
	var buf bytes.Buffer
	stats, err := h.encoder.Encode(&buf, tbl)
	h.observe(errors.StageEncode, start)
	if err != nil {
		return Response{}, err
	}

	bucket := h.config.DestinationBucket
	if bucket == "" {
		bucket = loc.Bucket
	}
	key := h.router.Route(h.now(), h.encoder.FileExtension())
	format := string(h.encoder.Format())

	start = time.Now()
	size, err := h.store.Put(ctx, bucket, key, &buf, h.encoder.ContentType())
	h.observe(errors.StageUpload, start)
	if err != nil {
		h.incFilesWritten(format, "failure")
		return Response{}, err
	}
	h.incFilesWritten(format, "success")
	if h.metrics != nil {
		h.metrics.ObserveFileSize(format, float64(size))
	}
	logger.Info("uploaded file",
		"bucket", bucket,
		"key", key,
		"rows", stats.RowCount,
		"size_bytes", size,
		"format", format,
	)

	start = time.Now()
	err = h.trigger.Start(ctx, h.config.CrawlerName)
	h.observe(errors.StageCatalog, start)
	if err != nil {
		return Response{}, err
	}
	logger.Info("crawler started", "crawler", h.config.CrawlerName)

	h.incInvocations(ResultSuccess)
	return Response{StatusCode: 200, Body: MessageSuccess}, nil
}

func (h *Handler) observe(stage string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveStage(stage, time.Since(start).Seconds())
	}
}

func (h *Handler) incInvocations(result string) {
	if h.metrics != nil {
		h.metrics.IncInvocations(result)
	}
}

func (h *Handler) incFilesWritten(format, status string) {
	if h.metrics != nil {
		h.metrics.IncFilesWritten(h.store.Backend(), format, status)
	}
}
