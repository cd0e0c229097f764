package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	apperrors "github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/consumer"
	"github.com/jittakal/ordersetl/pkg/event"
)

// DLQRecord is the data of a dead letter CloudEvent. The failed message value
// is kept in OriginalEvent when it is JSON and in OriginalPayload otherwise.
type DLQRecord struct {
	OriginalEvent     json.RawMessage `json:"original_event,omitempty"`
	OriginalPayload   []byte          `json:"original_payload,omitempty"`
	OriginalTopic     string          `json:"original_topic"`
	OriginalPartition int32           `json:"original_partition"`
	OriginalOffset    int64           `json:"original_offset"`
	FailureReason     string          `json:"failure_reason"`
	FailureStage      string          `json:"failure_stage"`
	FailureTimestamp  time.Time       `json:"failure_timestamp"`
	ProcessorID       string          `json:"processor_id"`
}

// DLQConfig contains DLQ configuration.
type DLQConfig struct {
	Enabled     bool
	TopicSuffix string
}

// DLQMetricsCollector defines metrics operations for the DLQ.
type DLQMetricsCollector interface {
	IncDLQPublished(topic string)
}

// DLQPublisher publishes failed messages to <topic><suffix> as CloudEvents
// in structured content mode.
type DLQPublisher struct {
	producer    sarama.SyncProducer
	config      DLQConfig
	logger      *slog.Logger
	metrics     DLQMetricsCollector
	processorID string
	now         func() time.Time
	mu          sync.RWMutex
	closed      bool
}

// NewDLQPublisher creates a new DLQ publisher sharing the consumer's
// brokers and security settings.
func NewDLQPublisher(
	securityConfig ConsumerConfig,
	dlqConfig DLQConfig,
	logger *slog.Logger,
	metrics DLQMetricsCollector,
	processorID string,
) (*DLQPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	if err := configureSecurity(saramaConfig, securityConfig); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}

	producer, err := sarama.NewSyncProducer(securityConfig.BootstrapServers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("DLQ publisher created",
		"bootstrap_servers", securityConfig.BootstrapServers,
		"topic_suffix", dlqConfig.TopicSuffix,
	)
	return newDLQPublisher(producer, dlqConfig, logger, metrics, processorID), nil
}

func newDLQPublisher(
	producer sarama.SyncProducer,
	dlqConfig DLQConfig,
	logger *slog.Logger,
	metrics DLQMetricsCollector,
	processorID string,
) *DLQPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DLQPublisher{
		producer:    producer,
		config:      dlqConfig,
		logger:      logger,
		metrics:     metrics,
		processorID: processorID,
		now:         time.Now,
	}
}

// Topic returns the DLQ topic for a source topic.
func (p *DLQPublisher) Topic(source string) string {
	return source + p.config.TopicSuffix
}

// Publish sends the failure to the DLQ.
func (p *DLQPublisher) Publish(ctx context.Context, failure consumer.Failure) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrConsumerClosed
	}
	if !p.config.Enabled {
		p.logger.Debug("DLQ disabled, skipping publish")
		return nil
	}

	dlqTopic := p.Topic(failure.Topic)
	ce, err := p.newEvent(failure)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: dlqTopic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("application/cloudevents+json")},
			{Key: []byte("failure_stage"), Value: []byte(apperrors.Stage(failure.Err))},
			{Key: []byte("original_topic"), Value: []byte(failure.Topic)},
			{Key: []byte("processor_id"), Value: []byte(p.processorID)},
		},
		Timestamp: p.now(),
	}
	if failure.Key != nil {
		msg.Key = sarama.ByteEncoder(failure.Key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to DLQ: %w", err)
	}
	if p.metrics != nil {
		p.metrics.IncDLQPublished(dlqTopic)
	}

	p.logger.Info("published message to DLQ",
		"dlq_topic", dlqTopic,
		"partition", partition,
		"offset", offset,
		"event_id", ce.ID(),
	)
	return nil
}

func (p *DLQPublisher) newEvent(failure consumer.Failure) (cloudevents.Event, error) {
	reason := ""
	if failure.Err != nil {
		reason = failure.Err.Error()
	}
	record := DLQRecord{
		OriginalTopic:     failure.Topic,
		OriginalPartition: failure.Partition,
		OriginalOffset:    failure.Offset,
		FailureReason:     reason,
		FailureStage:      apperrors.Stage(failure.Err),
		FailureTimestamp:  p.now().UTC(),
		ProcessorID:       p.processorID,
	}
	if json.Valid(failure.Value) {
		record.OriginalEvent = failure.Value
	} else {
		record.OriginalPayload = failure.Value
	}

	ce := cloudevents.NewEvent()
	ce.SetSpecVersion(cloudevents.VersionV1)
	ce.SetID(uuid.New().String())
	ce.SetType(event.TypeInvocationFailed)
	ce.SetSource(p.processorID)
	ce.SetSubject(failure.Topic + "/" + strconv.Itoa(int(failure.Partition)) + "/" + strconv.FormatInt(failure.Offset, 10))
	ce.SetTime(p.now())
	if err := ce.SetData(cloudevents.ApplicationJSON, record); err != nil {
		return cloudevents.Event{}, fmt.Errorf("failed to set DLQ event data: %w", err)
	}
	return ce, nil
}

// Close closes the DLQ publisher.
func (p *DLQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.logger.Info("closing DLQ publisher")

	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			p.logger.Error("error closing producer", "error", err)
			return err
		}
	}
	return nil
}
