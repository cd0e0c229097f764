// Package event defines the storage notification that triggers an invocation.
package event

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jittakal/ordersetl/internal/errors"
)

// S3Event is an S3 (or S3-compatible) object notification.
type S3Event = events.S3Event

// CloudEvents types used on the Kafka trigger path.
const (
	TypeObjectCreated    = "com.amazonaws.s3.ObjectCreated"
	TypeInvocationFailed = "com.orders.etl.invocation.failed"
)

// Location addresses one object.
type Location struct {
	Bucket string
	Key    string
}

// String returns the location as an s3:// URI.
func (l Location) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// Parse decodes a JSON notification body.
func Parse(data []byte) (S3Event, error) {
	var e S3Event
	if err := json.Unmarshal(data, &e); err != nil {
		return S3Event{}, fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	return e, nil
}

// New builds a single-record notification for bucket and key.
func New(bucket, key string) S3Event {
	return S3Event{
		Records: []events.S3EventRecord{{
			EventSource: "aws:s3",
			EventName:   "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: bucket},
				Object: events.S3Object{Key: url.QueryEscape(key), URLDecodedKey: key},
			},
		}},
	}
}

// Source returns the object named by the first record. Further records are
// ignored. Keys arrive URL-encoded and are decoded here.
func Source(e S3Event) (Location, error) {
	if len(e.Records) == 0 {
		return Location{}, &errors.ValidationError{Field: "Records", Reason: "event has no records"}
	}

	entity := e.Records[0].S3
	key, err := url.QueryUnescape(entity.Object.Key)
	if err != nil {
		return Location{}, &errors.ValidationError{Field: "Records[0].s3.object.key", Reason: err.Error()}
	}
	return Location{Bucket: entity.Bucket.Name, Key: key}, nil
}
