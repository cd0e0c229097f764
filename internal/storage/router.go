// Package storage implements storage-related functionality.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/jittakal/ordersetl/pkg/storage"
)

// Ensure implementation satisfies interface.
var _ storage.KeyRouter = (*DefaultRouter)(nil)

// Default output layout.
const (
	DefaultPrefix     = "orders_parquet_datalake"
	DefaultFilePrefix = "orders_etl"
)

// DefaultRouter names output objects by wall-clock time.
type DefaultRouter struct {
	prefix     string
	filePrefix string
	location   *time.Location
}

// NewRouter creates a new key router. A nil location means UTC.
func NewRouter(prefix, filePrefix string, location *time.Location) *DefaultRouter {
	if location == nil {
		location = time.UTC
	}
	return &DefaultRouter{
		prefix:     strings.Trim(prefix, "/"),
		filePrefix: filePrefix,
		location:   location,
	}
}

// Route returns the object key for a file written at now.
// Format: prefix/filePrefix_YYYYMMDD_HHMMSS<ext>
// Two invocations within the same second produce the same key; the later
// upload overwrites the earlier one.
func (r *DefaultRouter) Route(now time.Time, ext string) string {
	t := now.In(r.location)
	name := fmt.Sprintf("%s_%s%s", r.filePrefix, t.Format("20060102_150405"), ext)
	if r.prefix == "" {
		return name
	}
	return r.prefix + "/" + name
}

// ObjectURI renders bucket and key as a URI for logs and errors,
// e.g. s3://bucket/key.
func ObjectURI(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, strings.TrimPrefix(key, "/"))
}
