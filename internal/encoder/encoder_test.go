package encoder

import (
	"errors"
	"testing"

	apperrors "github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/encoder"
)

func TestFactory_CreateEncoder(t *testing.T) {
	tests := []struct {
		name        string
		format      encoder.Format
		compression string
		wantExt     string
		wantErr     bool
	}{
		{"parquet snappy", encoder.FormatParquet, "snappy", ".parquet", false},
		{"parquet default", encoder.FormatParquet, "", ".parquet", false},
		{"avro deflate", encoder.FormatAvro, "deflate", ".avro", false},
		{"avro default", encoder.FormatAvro, "", ".avro", false},
		{"avro bad codec", encoder.FormatAvro, "gzip", "", true},
		{"unknown format", encoder.Format("csv"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewFactory(tt.format, tt.compression).CreateEncoder()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateEncoder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if enc.FileExtension() != tt.wantExt {
				t.Errorf("FileExtension() = %s, want %s", enc.FileExtension(), tt.wantExt)
			}
			if enc.Format() != tt.format {
				t.Errorf("Format() = %s, want %s", enc.Format(), tt.format)
			}
		})
	}
}

func TestFactory_UnsupportedFormatError(t *testing.T) {
	_, err := NewFactory(encoder.Format("orc"), "").CreateEncoder()
	if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDefaultCompression(t *testing.T) {
	tests := []struct {
		format encoder.Format
		want   string
	}{
		{encoder.FormatParquet, "snappy"},
		{encoder.FormatAvro, "deflate"},
		{encoder.Format("other"), "uncompressed"},
	}

	for _, tt := range tests {
		if got := DefaultCompression(tt.format); got != tt.want {
			t.Errorf("DefaultCompression(%s) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func TestSupportedFormatsAndCompressions(t *testing.T) {
	if len(SupportedFormats()) != 2 {
		t.Errorf("SupportedFormats() = %v", SupportedFormats())
	}
	for _, format := range SupportedFormats() {
		for _, compression := range SupportedCompressions(format) {
			if _, err := NewFactory(format, compression).CreateEncoder(); err != nil {
				t.Errorf("%s/%s: %v", format, compression, err)
			}
		}
	}
	if got := SupportedCompressions(encoder.Format("x")); len(got) != 0 {
		t.Errorf("SupportedCompressions(x) = %v, want empty", got)
	}
}

func TestContentTypes(t *testing.T) {
	avroEnc, _ := NewAvroEncoder("")
	if got := NewParquetEncoder("").ContentType(); got != "application/vnd.apache.parquet" {
		t.Errorf("parquet ContentType() = %s", got)
	}
	if got := avroEnc.ContentType(); got != "application/avro" {
		t.Errorf("avro ContentType() = %s", got)
	}
}
