package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Invocation metrics
	Invocations    *prometheus.CounterVec
	OrdersRead     prometheus.Counter
	RowsFlattened  prometheus.Counter
	StageDuration  *prometheus.HistogramVec
	CrawlerStarts  *prometheus.CounterVec
	FilesWritten   *prometheus.CounterVec
	FileSize       *prometheus.HistogramVec
	StorageErrors  *prometheus.CounterVec
	StorageLatency *prometheus.HistogramVec

	// Kafka trigger metrics
	MessagesConsumed   *prometheus.CounterVec
	OffsetCommits      *prometheus.CounterVec
	Rebalances         *prometheus.CounterVec
	RebalanceDuration  *prometheus.HistogramVec
	PartitionsAssigned *prometheus.GaugeVec
	DLQPublished       *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invocations_total",
				Help: "Total number of pipeline invocations by result",
			},
			[]string{"result"},
		),
		OrdersRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_read_total",
				Help: "Total number of orders decoded from input files",
			},
		),
		RowsFlattened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rows_flattened_total",
				Help: "Total number of flat rows produced",
			},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Duration of each invocation stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		CrawlerStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_starts_total",
				Help: "Total number of catalog crawler start requests",
			},
			[]string{"status"},
		),
		FilesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "files_written_total",
				Help: "Total number of output files written",
			},
			[]string{"backend", "format", "status"},
		),
		FileSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "file_size_bytes",
				Help:    "Size of written files in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
			},
			[]string{"format"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"backend", "operation"},
		),
		StorageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_operation_duration_seconds",
				Help:    "Duration of object store operations",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"backend", "operation"},
		),

		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		OffsetCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_offset_commit_total",
				Help: "Total number of offset commits",
			},
			[]string{"topic", "partition", "status"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		RebalanceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_rebalance_duration_seconds",
				Help:    "Duration of consumer group sessions",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"group"},
		),
		PartitionsAssigned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_partitions_assigned",
				Help: "Number of partitions currently assigned to this consumer",
			},
			[]string{"topic"},
		),
		DLQPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlq_published_total",
				Help: "Total number of failed notifications published to the DLQ",
			},
			[]string{"topic"},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the current values to a Prometheus Pushgateway. Short-lived
// Lambda invocations are never scraped, so they push instead.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// Pipeline metrics

func (m *Metrics) IncInvocations(result string) {
	m.Invocations.WithLabelValues(result).Inc()
}

func (m *Metrics) AddOrdersRead(n int) {
	m.OrdersRead.Add(float64(n))
}

func (m *Metrics) AddRowsFlattened(n int) {
	m.RowsFlattened.Add(float64(n))
}

func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) IncFilesWritten(backend, format, status string) {
	m.FilesWritten.WithLabelValues(backend, format, status).Inc()
}

func (m *Metrics) ObserveFileSize(format string, size float64) {
	m.FileSize.WithLabelValues(format).Observe(size)
}

// Storage metrics

func (m *Metrics) ObserveStorageDuration(backend, operation string, seconds float64) {
	m.StorageLatency.WithLabelValues(backend, operation).Observe(seconds)
}

func (m *Metrics) IncStorageErrors(backend, operation string) {
	m.StorageErrors.WithLabelValues(backend, operation).Inc()
}

// Catalog metrics

func (m *Metrics) IncCrawlerStarts(status string) {
	m.CrawlerStarts.WithLabelValues(status).Inc()
}

// Kafka metrics

func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

func (m *Metrics) IncOffsetCommits(topic string, partition int32, status string) {
	m.OffsetCommits.WithLabelValues(topic, fmt.Sprintf("%d", partition), status).Inc()
}

func (m *Metrics) ObserveRebalanceDuration(groupID string, duration float64) {
	m.RebalanceDuration.WithLabelValues(groupID).Observe(duration)
}

func (m *Metrics) SetPartitionsAssigned(topic string, count float64) {
	m.PartitionsAssigned.WithLabelValues(topic).Set(count)
}

func (m *Metrics) IncDLQPublished(topic string) {
	m.DLQPublished.WithLabelValues(topic).Inc()
}
