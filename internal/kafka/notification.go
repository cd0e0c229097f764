package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/event"
)

// ceSpecVersionHeader marks a CloudEvent in binary content mode.
const ceSpecVersionHeader = "ce_specversion"

// Notification is a decoded message: the storage notification and, when the
// message was a CloudEvent, its id.
type Notification struct {
	Event   event.S3Event
	EventID string
}

// DecodeNotification extracts the storage notification from a message value.
// Three shapes are accepted: a bare notification, a structured CloudEvent
// whose data is the notification, and a binary CloudEvent (ce_* headers)
// whose value is the notification.
func DecodeNotification(value []byte, headers map[string]string) (Notification, error) {
	if _, ok := headers[ceSpecVersionHeader]; ok {
		e, err := event.Parse(value)
		if err != nil {
			return Notification{}, err
		}
		return Notification{Event: e, EventID: headers["ce_id"]}, nil
	}

	var probe struct {
		SpecVersion string `json:"specversion"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	if probe.SpecVersion == "" {
		e, err := event.Parse(value)
		if err != nil {
			return Notification{}, err
		}
		return Notification{Event: e}, nil
	}

	var ce cloudevents.Event
	if err := json.Unmarshal(value, &ce); err != nil {
		return Notification{}, fmt.Errorf("%w: cloud event: %v", errors.ErrInvalidEvent, err)
	}
	if err := ce.Validate(); err != nil {
		return Notification{}, fmt.Errorf("%w: cloud event: %v", errors.ErrInvalidEvent, err)
	}
	var e event.S3Event
	if err := ce.DataAs(&e); err != nil {
		return Notification{}, fmt.Errorf("%w: cloud event data: %v", errors.ErrInvalidEvent, err)
	}
	return Notification{Event: e, EventID: ce.ID()}, nil
}

func extractHeaders(headers []*sarama.RecordHeader) map[string]string {
	result := make(map[string]string, len(headers))
	for _, header := range headers {
		if header == nil {
			continue
		}
		result[string(header.Key)] = string(header.Value)
	}
	return result
}
