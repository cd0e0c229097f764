package encoder

import (
	"bytes"
	"testing"

	"github.com/linkedin/goavro/v2"

	"github.com/jittakal/ordersetl/pkg/order"
	"github.com/jittakal/ordersetl/pkg/table"
)

func readAvro(t *testing.T, data []byte) []map[string]any {
	t.Helper()

	reader, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewOCFReader() error = %v", err)
	}

	var records []map[string]any
	for reader.Scan() {
		datum, err := reader.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		records = append(records, datum.(map[string]any))
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("reader error = %v", err)
	}
	return records
}

func TestNewAvroEncoder(t *testing.T) {
	tests := []struct {
		compression string
		wantErr     bool
	}{
		{"", false},
		{"null", false},
		{"none", false},
		{"deflate", false},
		{"snappy", false},
		{"gzip", true},
		{"brotli", true},
	}

	for _, tt := range tests {
		t.Run(tt.compression, func(t *testing.T) {
			_, err := NewAvroEncoder(tt.compression)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAvroEncoder() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAvroEncoder_Encode(t *testing.T) {
	for _, compression := range []string{"null", "deflate", "snappy"} {
		t.Run(compression, func(t *testing.T) {
			enc, err := NewAvroEncoder(compression)
			if err != nil {
				t.Fatalf("NewAvroEncoder() error = %v", err)
			}

			var buf bytes.Buffer
			stats, err := enc.Encode(&buf, sampleTable())
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if stats.RowCount != 2 {
				t.Errorf("RowCount = %d, want 2", stats.RowCount)
			}
			if stats.SizeBytes != int64(buf.Len()) {
				t.Errorf("SizeBytes = %d, want %d", stats.SizeBytes, buf.Len())
			}

			records := readAvro(t, buf.Bytes())
			if len(records) != 2 {
				t.Fatalf("read %d records, want 2", len(records))
			}

			first := records[0]
			if got := first["order_id"].(map[string]any)["long"]; got != int64(1) {
				t.Errorf("order_id = %v, want 1", got)
			}
			if got := first["price"].(map[string]any)["double"]; got != float64(10) {
				t.Errorf("price = %v, want 10", got)
			}
			if got := first["product_name"].(map[string]any)["string"]; got != "Widget" {
				t.Errorf("product_name = %v, want Widget", got)
			}

			second := records[1]
			if second["category"] != nil {
				t.Errorf("category = %v, want nil", second["category"])
			}
			if second["quantity"] != nil {
				t.Errorf("quantity = %v, want nil", second["quantity"])
			}
		})
	}
}

func TestAvroEncoder_EmptyTable(t *testing.T) {
	enc, _ := NewAvroEncoder("deflate")
	var buf bytes.Buffer
	if _, err := enc.Encode(&buf, table.New(0)); err == nil {
		t.Error("expected error for empty table")
	}
}

func TestAvroEncoder_BoolAndRawColumns(t *testing.T) {
	tbl := table.New(1)
	var r table.Row
	r[0] = order.Bool(true)
	r[6] = mustRaw(t, `{"city":"Oslo"}`)
	tbl.Append(r)

	enc, _ := NewAvroEncoder("null")
	var buf bytes.Buffer
	if _, err := enc.Encode(&buf, tbl); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	records := readAvro(t, buf.Bytes())
	if got := records[0]["order_id"].(map[string]any)["boolean"]; got != true {
		t.Errorf("order_id = %v, want true", got)
	}
	if got := records[0]["address"].(map[string]any)["string"]; got != `{"city":"Oslo"}` {
		t.Errorf("address = %v", got)
	}
}

func TestAvroSchema(t *testing.T) {
	var kinds [table.NumColumns]table.ColumnKind
	schema, err := AvroSchema(kinds)
	if err != nil {
		t.Fatalf("AvroSchema() error = %v", err)
	}
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}
	if codec.Schema() == "" {
		t.Error("empty canonical schema")
	}
}

func mustRaw(t *testing.T, s string) order.Value {
	t.Helper()
	var v order.Value
	if err := v.UnmarshalJSON([]byte(s)); err != nil {
		t.Fatalf("UnmarshalJSON(%s) error = %v", s, err)
	}
	return v
}
