// Package validator provides trigger event validation.
package validator

import (
	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/event"
)

// S3EventValidator checks that a notification names an object.
type S3EventValidator struct{}

// NewS3EventValidator creates a new notification validator.
func NewS3EventValidator() *S3EventValidator {
	return &S3EventValidator{}
}

// Validate checks the first record, the only one an invocation reads.
func (v *S3EventValidator) Validate(e *event.S3Event) error {
	if e == nil || len(e.Records) == 0 {
		return &errors.ValidationError{
			Field:  "Records",
			Reason: "event has no records",
		}
	}

	entity := e.Records[0].S3
	if entity.Bucket.Name == "" {
		return &errors.ValidationError{
			Field:  "Records[0].s3.bucket.name",
			Reason: "required field is missing",
		}
	}

	if entity.Object.Key == "" {
		return &errors.ValidationError{
			Field:  "Records[0].s3.object.key",
			Reason: "required field is missing",
		}
	}

	return nil
}
