// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrInvalidEvent      = errors.New("invalid trigger event")
	ErrInvalidInput      = errors.New("invalid order input")
	ErrMissingCustomer   = errors.New("order is missing customer")
	ErrEmptyTable        = errors.New("table has no rows")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrStoreClosed       = errors.New("object store is closed")
)

// Stages of an invocation, used to classify failures.
const (
	StageEvent   = "event"
	StageSource  = "source"
	StageSchema  = "schema"
	StageEncode  = "encode"
	StageUpload  = "upload"
	StageCatalog = "catalog"
	StageUnknown = "unknown"
)

// ValidationError reports a malformed trigger event. It always matches
// ErrInvalidEvent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: field=%s: %s", ErrInvalidEvent, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEvent
}

// RecordError reports a failure tied to one input order.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("order %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StorageError represents a storage operation failure.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s path=%s: %v",
		e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EncodeError represents a columnar encoding failure.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error: format=%s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// CatalogError represents a failure to start the catalog crawler.
type CatalogError struct {
	Crawler string
	Err     error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error: crawler=%s: %v", e.Crawler, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Stage classifies err into the invocation stage it came from.
func Stage(err error) string {
	if err == nil {
		return ""
	}

	var (
		storageErr *StorageError
		encodeErr  *EncodeError
		catalogErr *CatalogError
	)
	switch {
	case errors.Is(err, ErrInvalidEvent):
		return StageEvent
	case errors.Is(err, ErrMissingCustomer):
		return StageSchema
	case errors.Is(err, ErrInvalidInput):
		return StageSource
	case errors.As(err, &catalogErr):
		return StageCatalog
	case errors.As(err, &encodeErr), errors.Is(err, ErrEmptyTable), errors.Is(err, ErrUnsupportedFormat):
		return StageEncode
	case errors.As(err, &storageErr):
		if storageErr.Operation == "get" {
			return StageSource
		}
		return StageUpload
	default:
		return StageUnknown
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
