package encoder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/linkedin/goavro/v2"

	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/encoder"
	"github.com/jittakal/ordersetl/pkg/table"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*AvroEncoder)(nil)

// AvroEncoder implements encoder.Encoder for Apache Avro OCF (Object Container File).
// Record fields follow the table's fixed column order; each field is a
// ["null", T] union so absent values stay null.
type AvroEncoder struct {
	codecName string
}

// NewAvroEncoder creates a new Avro encoder with the given OCF block codec.
func NewAvroEncoder(compression string) (*AvroEncoder, error) {
	name, err := ocfCompression(compression)
	if err != nil {
		return nil, err
	}
	return &AvroEncoder{codecName: name}, nil
}

func ocfCompression(compression string) (string, error) {
	switch compression {
	case "", "null", "none", "uncompressed":
		return goavro.CompressionNullLabel, nil
	case "deflate":
		return goavro.CompressionDeflateLabel, nil
	case "snappy":
		return goavro.CompressionSnappyLabel, nil
	default:
		return "", fmt.Errorf("unsupported avro codec: %s", compression)
	}
}

func avroType(kind table.ColumnKind) string {
	switch kind {
	case table.KindInt64:
		return "long"
	case table.KindDouble:
		return "double"
	case table.KindBool:
		return "boolean"
	default:
		return "string"
	}
}

// AvroSchema returns the record schema for the given column kinds.
func AvroSchema(kinds [table.NumColumns]table.ColumnKind) (string, error) {
	type field struct {
		Name    string   `json:"name"`
		Type    []string `json:"type"`
		Default any      `json:"default"`
	}
	fields := make([]field, table.NumColumns)
	for i, name := range table.Columns() {
		fields[i] = field{Name: name, Type: []string{"null", avroType(kinds[i])}}
	}

	schema, err := json.Marshal(map[string]any{
		"type":      "record",
		"name":      "OrderRow",
		"namespace": "com.orders.etl",
		"fields":    fields,
	})
	if err != nil {
		return "", err
	}
	return string(schema), nil
}

// Encode writes the table as an Avro OCF stream to w.
func (e *AvroEncoder) Encode(w io.Writer, t *table.Table) (*encoder.Stats, error) {
	if t.Empty() {
		return nil, errors.ErrEmptyTable
	}

	kinds := t.InferKinds()
	schema, err := AvroSchema(kinds)
	if err != nil {
		return nil, &errors.EncodeError{Format: string(encoder.FormatAvro), Err: err}
	}
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, &errors.EncodeError{Format: string(encoder.FormatAvro), Err: fmt.Errorf("failed to create avro codec: %w", err)}
	}

	counter := &countingWriter{w: w}
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               counter,
		Codec:           codec,
		CompressionName: e.codecName,
	})
	if err != nil {
		return nil, &errors.EncodeError{Format: string(encoder.FormatAvro), Err: fmt.Errorf("failed to create OCF writer: %w", err)}
	}

	records := make([]any, 0, t.Len())
	for _, row := range t.Rows {
		records = append(records, toAvroMap(kinds, row))
	}
	if err := ocfWriter.Append(records); err != nil {
		return nil, &errors.EncodeError{Format: string(encoder.FormatAvro), Err: fmt.Errorf("failed to write records: %w", err)}
	}

	return &encoder.Stats{
		RowCount:  t.Len(),
		SizeBytes: counter.n,
	}, nil
}

// toAvroMap converts a row to the native map goavro expects; unions are
// encoded as {type: value} or nil.
func toAvroMap(kinds [table.NumColumns]table.ColumnKind, row table.Row) map[string]any {
	m := make(map[string]any, table.NumColumns)
	for i, name := range table.Columns() {
		v := row[i]
		if v.IsNull() {
			m[name] = nil
			continue
		}

		typ := avroType(kinds[i])
		switch kinds[i] {
		case table.KindInt64:
			n, _ := v.Int64()
			m[name] = goavro.Union(typ, n)
		case table.KindDouble:
			f, _ := v.Float64()
			m[name] = goavro.Union(typ, f)
		case table.KindBool:
			b, _ := v.Boolean()
			m[name] = goavro.Union(typ, b)
		default:
			m[name] = goavro.Union(typ, v.Text())
		}
	}
	return m
}

// Format returns the file format.
func (e *AvroEncoder) Format() encoder.Format {
	return encoder.FormatAvro
}

// FileExtension returns the file extension.
func (e *AvroEncoder) FileExtension() string {
	return ".avro"
}

// ContentType returns the MIME type of Avro container files.
func (e *AvroEncoder) ContentType() string {
	return "application/avro"
}
