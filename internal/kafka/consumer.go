// Package kafka triggers invocations from storage notifications on Kafka and
// publishes failed messages to a dead letter queue.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/aws/aws-msk-iam-sasl-signer-go/signer"

	apperrors "github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/internal/pipeline"
	"github.com/jittakal/ordersetl/pkg/consumer"
	"github.com/jittakal/ordersetl/pkg/event"
)

// Ensure implementation satisfies interfaces at compile time.
var (
	_ consumer.Consumer           = (*SaramaConsumer)(nil)
	_ sarama.ConsumerGroupHandler = (*consumerGroupHandler)(nil)
	_ sarama.AccessTokenProvider  = (*MSKAccessTokenProvider)(nil)
	_ consumer.DLQPublisher       = (*DLQPublisher)(nil)
)

// ErrConsumerClosed is returned when using a closed consumer or publisher.
var ErrConsumerClosed = errors.New("kafka client is closed")

// ConsumerConfig contains Kafka consumer configuration.
type ConsumerConfig struct {
	BootstrapServers    []string
	GroupID             string
	Topics              []string
	SecurityProtocol    string
	SASLMechanism       string
	SASLUsername        string
	SASLPassword        string
	AWSRegion           string
	AutoOffsetReset     string
	MaxPollIntervalMS   int
	SessionTimeoutMS    int
	HeartbeatIntervalMS int
}

// MetricsCollector defines metrics operations for Kafka consumer.
type MetricsCollector interface {
	IncMessagesConsumed(topic string, partition int32)
	IncRebalances(groupID string)
	IncOffsetCommits(topic string, partition int32, status string)
	ObserveRebalanceDuration(groupID string, duration float64)
	SetPartitionsAssigned(topic string, count float64)
}

// Invoker runs one invocation for a storage notification.
type Invoker interface {
	Handle(ctx context.Context, e event.S3Event) (pipeline.Response, error)
}

// SaramaConsumer runs one invocation per message of a consumer group.
// Messages of a partition are processed in order, one at a time; the offset
// is marked once the invocation finished, whether it succeeded or the
// failure went to the DLQ.
type SaramaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        ConsumerConfig
	invoker       Invoker
	dlq           consumer.DLQPublisher
	logger        *slog.Logger
	metrics       MetricsCollector
	mu            sync.RWMutex
	closed        bool
}

// NewSaramaConsumer creates a new Kafka consumer using Sarama library.
// dlq may be nil, in which case failures are only logged.
func NewSaramaConsumer(
	config ConsumerConfig,
	invoker Invoker,
	dlq consumer.DLQPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*SaramaConsumer, error) {
	saramaConfig, err := newConsumerSaramaConfig(config)
	if err != nil {
		return nil, err
	}

	consumerGroup, err := sarama.NewConsumerGroup(
		config.BootstrapServers,
		config.GroupID,
		saramaConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("kafka consumer created",
		"group_id", config.GroupID,
		"topics", config.Topics,
		"bootstrap_servers", config.BootstrapServers,
		"security_protocol", config.SecurityProtocol,
	)

	return newSaramaConsumer(consumerGroup, config, invoker, dlq, logger, metrics), nil
}

func newSaramaConsumer(
	group sarama.ConsumerGroup,
	config ConsumerConfig,
	invoker Invoker,
	dlq consumer.DLQPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) *SaramaConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaramaConsumer{
		consumerGroup: group,
		config:        config,
		invoker:       invoker,
		dlq:           dlq,
		logger:        logger,
		metrics:       metrics,
	}
}

func newConsumerSaramaConfig(config ConsumerConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = offsetInitial(config.AutoOffsetReset)
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true

	if config.SessionTimeoutMS > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMS) * time.Millisecond
	}
	if config.HeartbeatIntervalMS > 0 {
		saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatIntervalMS) * time.Millisecond
	}

	// An invocation can take as long as an upload plus a crawler call.
	saramaConfig.Consumer.MaxProcessingTime = 5 * time.Minute
	if config.MaxPollIntervalMS > 0 {
		saramaConfig.Consumer.MaxProcessingTime = time.Duration(config.MaxPollIntervalMS) * time.Millisecond
	}

	saramaConfig.Consumer.Return.Errors = true

	if err := configureSecurity(saramaConfig, config); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}
	return saramaConfig, nil
}

// Run consumes until ctx is cancelled. Each rebalance ends one Consume call;
// the loop rejoins the group until the context ends.
func (c *SaramaConsumer) Run(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	handler := &consumerGroupHandler{consumer: c}

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.logger.Error("consumer group error", "error", err)
		}
	}()

	c.logger.Info("kafka consumer started", "topics", c.config.Topics)
	for {
		if err := c.consumerGroup.Consume(ctx, c.config.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consumer group: %w", err)
		}
		if ctx.Err() != nil {
			c.logger.Info("consumer context cancelled")
			return nil
		}
	}
}

// Close closes the consumer and releases resources.
func (c *SaramaConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Info("closing kafka consumer")

	if err := c.consumerGroup.Close(); err != nil {
		c.logger.Error("error closing consumer group", "error", err)
		return err
	}
	return nil
}

// process runs one message through the invoker. It never fails the claim:
// a failed invocation goes to the DLQ and the message is still marked.
func (c *SaramaConsumer) process(ctx context.Context, message *sarama.ConsumerMessage) {
	logger := c.logger.With(
		"topic", message.Topic,
		"partition", message.Partition,
		"offset", message.Offset,
	)

	headers := extractHeaders(message.Headers)
	notification, err := DecodeNotification(message.Value, headers)
	if err == nil {
		if notification.EventID != "" {
			logger = logger.With("event_id", notification.EventID)
		}
		var resp pipeline.Response
		resp, err = c.invoker.Handle(ctx, notification.Event)
		if err == nil {
			logger.Info("message processed", "body", resp.Body)
			return
		}
	}

	logger.Warn("message failed", "error", err, "stage", apperrors.Stage(err))
	if c.dlq == nil {
		return
	}
	failure := consumer.Failure{
		Topic:     message.Topic,
		Partition: message.Partition,
		Offset:    message.Offset,
		Key:       message.Key,
		Value:     message.Value,
		Timestamp: message.Timestamp,
		Err:       err,
	}
	if dlqErr := c.dlq.Publish(ctx, failure); dlqErr != nil {
		logger.Error("failed to publish to DLQ", "error", dlqErr)
	}
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler.
type consumerGroupHandler struct {
	consumer       *SaramaConsumer
	rebalanceStart time.Time
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.rebalanceStart = time.Now()

	h.consumer.logger.Info("consumer group session setup",
		"member_id", session.MemberID(),
		"generation_id", session.GenerationID(),
		"claims", session.Claims(),
	)

	if m := h.consumer.metrics; m != nil {
		m.IncRebalances(h.consumer.config.GroupID)
		for topic, partitions := range session.Claims() {
			m.SetPartitionsAssigned(topic, float64(len(partitions)))
		}
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (h *consumerGroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	if h.consumer.metrics != nil && !h.rebalanceStart.IsZero() {
		h.consumer.metrics.ObserveRebalanceDuration(
			h.consumer.config.GroupID,
			time.Since(h.rebalanceStart).Seconds(),
		)
	}

	h.consumer.logger.Info("consumer group session cleanup",
		"member_id", session.MemberID(),
	)
	return nil
}

// ConsumeClaim processes messages from a partition.
func (h *consumerGroupHandler) ConsumeClaim(
	session sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	h.consumer.logger.Info("started consuming partition",
		"topic", claim.Topic(),
		"partition", claim.Partition(),
		"initial_offset", claim.InitialOffset(),
	)

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if h.consumer.metrics != nil {
				h.consumer.metrics.IncMessagesConsumed(message.Topic, message.Partition)
			}

			h.consumer.process(session.Context(), message)

			session.MarkMessage(message, "")
			if h.consumer.metrics != nil {
				h.consumer.metrics.IncOffsetCommits(message.Topic, message.Partition, "success")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

// MSKAccessTokenProvider implements sarama.AccessTokenProvider for AWS MSK IAM authentication.
type MSKAccessTokenProvider struct {
	region string
}

// Token generates an AWS MSK IAM authentication token.
func (m *MSKAccessTokenProvider) Token() (*sarama.AccessToken, error) {
	token, expiryMs, err := signer.GenerateAuthToken(context.Background(), m.region)
	if err != nil {
		return nil, fmt.Errorf("failed to generate MSK IAM token: %w", err)
	}

	return &sarama.AccessToken{
		Token: token,
		Extensions: map[string]string{
			"expiry": fmt.Sprintf("%d", expiryMs),
		},
	}, nil
}

// offsetInitial converts the AutoOffsetReset config to Sarama's offset constant.
func offsetInitial(autoOffsetReset string) int64 {
	if autoOffsetReset == "earliest" {
		return sarama.OffsetOldest
	}
	return sarama.OffsetNewest
}

func configureSecurity(config *sarama.Config, kafkaConfig ConsumerConfig) error {
	switch kafkaConfig.SecurityProtocol {
	case "", "PLAINTEXT":
		return nil

	case "SASL_PLAINTEXT", "SASL_SSL":
		config.Net.SASL.Enable = true

		switch kafkaConfig.SASLMechanism {
		case "PLAIN":
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
			config.Net.SASL.User = kafkaConfig.SASLUsername
			config.Net.SASL.Password = kafkaConfig.SASLPassword

		case "SCRAM-SHA-256", "SCRAM-SHA-512":
			m := scramMechanisms[kafkaConfig.SASLMechanism]
			config.Net.SASL.Mechanism = m.mechanism
			config.Net.SASL.User = kafkaConfig.SASLUsername
			config.Net.SASL.Password = kafkaConfig.SASLPassword
			config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return newSCRAMClient(m.hash)
			}

		case "AWS_MSK_IAM":
			if kafkaConfig.AWSRegion == "" {
				return fmt.Errorf("aws region is required for AWS_MSK_IAM")
			}
			config.Net.SASL.Mechanism = sarama.SASLTypeOAuth
			config.Net.SASL.TokenProvider = &MSKAccessTokenProvider{region: kafkaConfig.AWSRegion}

		default:
			return fmt.Errorf("unsupported SASL mechanism: %s", kafkaConfig.SASLMechanism)
		}

		if kafkaConfig.SecurityProtocol == "SASL_SSL" {
			config.Net.TLS.Enable = true
			config.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
		}

	case "SSL":
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}

	default:
		return fmt.Errorf("unsupported security protocol: %s", kafkaConfig.SecurityProtocol)
	}

	return nil
}
