package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jittakal/ordersetl/internal/kafka"
	"github.com/jittakal/ordersetl/pkg/consumer"
)

// consumeCmd runs the Kafka consumer
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume S3 event notifications from Kafka",
	Long: `Join the kafka.consumer.group_id consumer group on kafka.consumer.topics.
Every message is an S3 event notification, either bare or wrapped in a
CloudEvent, and runs one invocation. Failed messages are published to
<topic><kafka.dlq.topic_suffix> when the DLQ is enabled; offsets are
committed either way.

Health probes and metrics are served on server.port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsume(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(ctx context.Context) error {
	loader, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := loader.ValidateKafka(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	k := cfg.Kafka
	consumerConfig := kafka.ConsumerConfig{
		BootstrapServers:    k.BootstrapServers,
		GroupID:             k.Consumer.GroupID,
		Topics:              k.Consumer.Topics,
		SecurityProtocol:    k.SecurityProtocol,
		SASLMechanism:       k.SASLMechanism,
		SASLUsername:        k.SASLUsername,
		SASLPassword:        k.SASLPassword,
		AWSRegion:           k.AWSRegion,
		AutoOffsetReset:     k.Consumer.AutoOffsetReset,
		MaxPollIntervalMS:   k.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    k.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: k.Consumer.HeartbeatIntervalMS,
	}

	var dlq consumer.DLQPublisher
	if k.DLQ.Enabled {
		publisher, err := kafka.NewDLQPublisher(consumerConfig, kafka.DLQConfig{
			Enabled:     true,
			TopicSuffix: k.DLQ.TopicSuffix,
		}, a.logger, a.metrics, cfg.Application.Name)
		if err != nil {
			return err
		}
		a.addCloser(publisher.Close)
		dlq = publisher
	}

	c, err := kafka.NewSaramaConsumer(consumerConfig, a.handler, dlq, a.logger, a.metrics)
	if err != nil {
		return err
	}
	a.addCloser(c.Close)

	httpServer, err := startServer(a, a.handler)
	if err != nil {
		return err
	}

	runErr := c.Run(ctx)
	if runErr != nil {
		a.logger.Error("consumer stopped", "error", runErr)
	}
	return errors.Join(runErr, shutdownServer(httpServer))
}
