// Package encoder defines interfaces for encoding flattened tables to columnar file formats.
package encoder

import (
	"io"

	"github.com/jittakal/ordersetl/pkg/table"
)

// Format represents the output file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatAvro    Format = "avro"
)

// Stats describes an encoded file.
type Stats struct {
	RowCount  int
	SizeBytes int64
}

// Encoder encodes a table to a specific file format.
type Encoder interface {
	// Encode writes the table to w and returns file statistics.
	Encode(w io.Writer, t *table.Table) (*Stats, error)

	// Format returns the file format this encoder produces.
	Format() Format

	// FileExtension returns the file extension (e.g., ".parquet", ".avro").
	FileExtension() string

	// ContentType returns the MIME type used when uploading.
	ContentType() string
}
