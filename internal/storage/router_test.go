package storage

import (
	"testing"
	"time"
)

func TestNewRouter(t *testing.T) {
	router := NewRouter("/orders_parquet_datalake/", "orders_etl", nil)

	if router.prefix != "orders_parquet_datalake" {
		t.Errorf("prefix = %s, want orders_parquet_datalake", router.prefix)
	}
	if router.location != time.UTC {
		t.Errorf("location = %v, want UTC", router.location)
	}
}

func TestDefaultRouter_Route(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		prefix     string
		filePrefix string
		location   *time.Location
		ext        string
		want       string
	}{
		{
			name:       "default layout",
			prefix:     DefaultPrefix,
			filePrefix: DefaultFilePrefix,
			ext:        ".parquet",
			want:       "orders_parquet_datalake/orders_etl_20240101_120000.parquet",
		},
		{
			name:       "avro extension",
			prefix:     DefaultPrefix,
			filePrefix: DefaultFilePrefix,
			ext:        ".avro",
			want:       "orders_parquet_datalake/orders_etl_20240101_120000.avro",
		},
		{
			name:       "no prefix",
			prefix:     "",
			filePrefix: "batch",
			ext:        ".parquet",
			want:       "batch_20240101_120000.parquet",
		},
		{
			name:       "configured time zone",
			prefix:     "lake",
			filePrefix: DefaultFilePrefix,
			location:   tokyo,
			ext:        ".parquet",
			want:       "lake/orders_etl_20240101_210000.parquet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(tt.prefix, tt.filePrefix, tt.location)
			if got := router.Route(at, tt.ext); got != tt.want {
				t.Errorf("Route() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultRouter_SameSecondCollides(t *testing.T) {
	router := NewRouter(DefaultPrefix, DefaultFilePrefix, nil)
	a := time.Date(2024, 1, 1, 12, 0, 0, 100, time.UTC)
	b := time.Date(2024, 1, 1, 12, 0, 0, 900_000_000, time.UTC)

	if router.Route(a, ".parquet") != router.Route(b, ".parquet") {
		t.Error("keys within the same second should be identical")
	}
}

func TestObjectURI(t *testing.T) {
	if got := ObjectURI("s3", "bucket", "/a/b.json"); got != "s3://bucket/a/b.json" {
		t.Errorf("ObjectURI() = %s", got)
	}
}
