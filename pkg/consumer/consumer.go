// Package consumer defines interfaces for message-driven invocation triggers.
//
// A consumer reads storage notifications from a broker and runs one
// invocation per message; messages whose invocation fails are handed to a
// dead letter publisher before their offset is committed.
package consumer

import (
	"context"
	"time"
)

// Consumer reads notifications and runs invocations until its context ends.
type Consumer interface {
	// Run blocks until ctx is cancelled or the consumer fails.
	Run(ctx context.Context) error

	// Close closes the consumer and releases resources.
	Close() error
}

// Failure describes a message whose invocation did not succeed.
type Failure struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Err       error
}

// DLQPublisher publishes failed messages to a dead letter queue.
type DLQPublisher interface {
	// Publish sends the failure to the DLQ topic derived from its source topic.
	Publish(ctx context.Context, failure Failure) error

	// Close closes the publisher and releases resources.
	Close() error
}
