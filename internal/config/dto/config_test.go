package dto

import (
	"testing"
)

func TestApplicationConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ApplicationConfig
		wantErr bool
	}{
		{
			name: "valid",
			config: ApplicationConfig{
				Application: ApplicationInfo{Name: "orders-etl"},
				Storage:     StorageConfig{Backend: "s3", Format: "parquet"},
				Catalog:     CatalogConfig{Enabled: true, CrawlerName: "etl_pipeline_crawler"},
			},
			wantErr: false,
		},
		{
			name:    "missing name",
			config:  ApplicationConfig{Storage: StorageConfig{Backend: "s3", Format: "parquet"}},
			wantErr: true,
		},
		{
			name: "missing backend",
			config: ApplicationConfig{
				Application: ApplicationInfo{Name: "orders-etl"},
				Storage:     StorageConfig{Format: "parquet"},
			},
			wantErr: true,
		},
		{
			name: "catalog without crawler",
			config: ApplicationConfig{
				Application: ApplicationInfo{Name: "orders-etl"},
				Storage:     StorageConfig{Backend: "s3", Format: "parquet"},
				Catalog:     CatalogConfig{Enabled: true},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKafkaConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  KafkaConfig
		wantErr bool
	}{
		{
			name: "valid plaintext config",
			config: KafkaConfig{
				BootstrapServers: []string{"localhost:9092"},
				SecurityProtocol: "PLAINTEXT",
				Consumer:         ConsumerConfig{GroupID: "orders-etl", Topics: []string{"s3-events"}},
			},
			wantErr: false,
		},
		{
			name:    "empty bootstrap servers",
			config:  KafkaConfig{Consumer: ConsumerConfig{GroupID: "g", Topics: []string{"t"}}},
			wantErr: true,
		},
		{
			name: "missing group",
			config: KafkaConfig{
				BootstrapServers: []string{"localhost:9092"},
				Consumer:         ConsumerConfig{Topics: []string{"t"}},
			},
			wantErr: true,
		},
		{
			name: "missing topics",
			config: KafkaConfig{
				BootstrapServers: []string{"localhost:9092"},
				Consumer:         ConsumerConfig{GroupID: "g"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveCompression(t *testing.T) {
	tests := []struct {
		name   string
		config ApplicationConfig
		want   string
	}{
		{
			name: "explicit storage compression wins",
			config: ApplicationConfig{
				Storage: StorageConfig{Format: "parquet", Compression: "zstd"},
				Parquet: ParquetConfig{Compression: "snappy"},
			},
			want: "zstd",
		},
		{
			name: "parquet section",
			config: ApplicationConfig{
				Storage: StorageConfig{Format: "parquet"},
				Parquet: ParquetConfig{Compression: "gzip"},
			},
			want: "gzip",
		},
		{
			name: "avro section",
			config: ApplicationConfig{
				Storage: StorageConfig{Format: "avro"},
				Avro:    AvroConfig{Codec: "snappy"},
			},
			want: "snappy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.EffectiveCompression(); got != tt.want {
				t.Errorf("EffectiveCompression() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDestinationConfig_Location(t *testing.T) {
	loc, err := DestinationConfig{}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("empty timezone = %v, %v; want UTC", loc, err)
	}

	if _, err := (DestinationConfig{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestAzureConfig_Validate(t *testing.T) {
	if err := (&AzureConfig{AccountName: "a", AccountKey: "k"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (&AzureConfig{AccountName: "a"}).Validate(); err == nil {
		t.Error("expected error without key")
	}
}

func TestFileConfig_Validate(t *testing.T) {
	if err := (&FileConfig{}).Validate(); err == nil {
		t.Error("expected error without base path")
	}
	if err := (&FileConfig{BasePath: "/tmp"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
