// Package encoder implements file format encoders.
package encoder

import (
	"fmt"
	"io"
	"reflect"

	"github.com/parquet-go/parquet-go"

	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/encoder"
	"github.com/jittakal/ordersetl/pkg/order"
	"github.com/jittakal/ordersetl/pkg/table"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*ParquetEncoder)(nil)

var (
	stringPtr = reflect.TypeOf((*string)(nil))
	int64Ptr  = reflect.TypeOf((*int64)(nil))
	doublePtr = reflect.TypeOf((*float64)(nil))
	boolPtr   = reflect.TypeOf((*bool)(nil))
)

// ParquetEncoder implements encoder.Encoder for Apache Parquet columnar format.
// The schema is derived per table from the inferred column kinds; every column
// is optional and columns keep the table's fixed order.
type ParquetEncoder struct {
	compressionName string
	createdBy       string
	version         string
}

// NewParquetEncoder creates a new Parquet encoder with specified compression.
func NewParquetEncoder(compression string) *ParquetEncoder {
	return &ParquetEncoder{
		compressionName: compression,
		createdBy:       "orders-etl",
		version:         "1.0",
	}
}

// compressionCodec converts string compression name to parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// RowType returns the struct type used as the Parquet schema for the given kinds.
// Field i carries column i; pointer fields map to optional columns.
func RowType(kinds [table.NumColumns]table.ColumnKind) reflect.Type {
	fields := make([]reflect.StructField, table.NumColumns)
	for i, name := range table.Columns() {
		typ := stringPtr
		tag := fmt.Sprintf(`parquet:"%s,dict,optional"`, name)
		switch kinds[i] {
		case table.KindInt64:
			typ = int64Ptr
			tag = fmt.Sprintf(`parquet:"%s,optional"`, name)
		case table.KindDouble:
			typ = doublePtr
			tag = fmt.Sprintf(`parquet:"%s,optional"`, name)
		case table.KindBool:
			typ = boolPtr
			tag = fmt.Sprintf(`parquet:"%s,optional"`, name)
		}
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("Col%02d", i),
			Type: typ,
			Tag:  reflect.StructTag(tag),
		}
	}
	return reflect.StructOf(fields)
}

// Encode writes the table as a single Parquet file to w.
func (e *ParquetEncoder) Encode(w io.Writer, t *table.Table) (*encoder.Stats, error) {
	if t.Empty() {
		return nil, errors.ErrEmptyTable
	}

	kinds := t.InferKinds()
	rowType := RowType(kinds)
	schema := parquet.SchemaOf(reflect.New(rowType).Interface())

	counter := &countingWriter{w: w}
	writer := parquet.NewWriter(
		counter,
		schema,
		compressionCodec(e.compressionName),
		parquet.CreatedBy(e.createdBy, e.version, "0"),
	)

	for i, row := range t.Rows {
		rec, err := toParquetRecord(rowType, kinds, row)
		if err != nil {
			writer.Close()
			return nil, &errors.EncodeError{Format: string(encoder.FormatParquet), Err: fmt.Errorf("row %d: %w", i, err)}
		}
		if err := writer.Write(rec); err != nil {
			writer.Close()
			return nil, &errors.EncodeError{Format: string(encoder.FormatParquet), Err: fmt.Errorf("failed to write row %d: %w", i, err)}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, &errors.EncodeError{Format: string(encoder.FormatParquet), Err: fmt.Errorf("failed to close writer: %w", err)}
	}

	return &encoder.Stats{
		RowCount:  t.Len(),
		SizeBytes: counter.n,
	}, nil
}

// toParquetRecord converts a row to a value of rowType. Nulls stay nil pointers.
func toParquetRecord(rowType reflect.Type, kinds [table.NumColumns]table.ColumnKind, row table.Row) (any, error) {
	rec := reflect.New(rowType).Elem()
	for i, v := range row {
		if v.IsNull() {
			continue
		}

		var ptr reflect.Value
		switch kinds[i] {
		case table.KindInt64:
			n, ok := v.Int64()
			if !ok {
				return nil, kindMismatch(i, v, kinds[i])
			}
			ptr = reflect.ValueOf(&n)
		case table.KindDouble:
			f, ok := v.Float64()
			if !ok {
				return nil, kindMismatch(i, v, kinds[i])
			}
			ptr = reflect.ValueOf(&f)
		case table.KindBool:
			b, ok := v.Boolean()
			if !ok {
				return nil, kindMismatch(i, v, kinds[i])
			}
			ptr = reflect.ValueOf(&b)
		default:
			s := v.Text()
			ptr = reflect.ValueOf(&s)
		}
		rec.Field(i).Set(ptr)
	}
	return rec.Interface(), nil
}

func kindMismatch(col int, v order.Value, kind table.ColumnKind) error {
	return fmt.Errorf("column %s: %s value in %s column", table.Columns()[col], v.Kind(), kind)
}

// Format returns the file format.
func (e *ParquetEncoder) Format() encoder.Format {
	return encoder.FormatParquet
}

// FileExtension returns the file extension.
func (e *ParquetEncoder) FileExtension() string {
	return ".parquet"
}

// ContentType returns the MIME type of Parquet files.
func (e *ParquetEncoder) ContentType() string {
	return "application/vnd.apache.parquet"
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
