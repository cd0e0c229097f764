package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/jittakal/ordersetl/internal/config/dto"
)

// PathEnv names the environment variable consulted when no --config flag is given.
const PathEnv = "CONFIG_PATH"

var (
	supportedBackends  = []string{"s3", "gcs", "azure", "file"}
	supportedFormats   = []string{"parquet", "avro"}
	supportedProviders = []string{"glue", "noop"}
	supportedLevels    = []string{"debug", "info", "warn", "error"}
	avroCodecs         = []string{"null", "none", "deflate", "snappy"}
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// ResolvePath picks the config file: the flag value, then CONFIG_PATH, then none.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(PathEnv)
}

// Load loads configuration from file and environment variables.
// An empty path loads defaults and environment only.
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Expand environment variables in config values
	// Only expand if the value contains ${...} pattern
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key gets a default so
// APP_* environment variables can override it.
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "orders-etl")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Storage defaults
	l.v.SetDefault("storage.backend", "s3")
	l.v.SetDefault("storage.format", "parquet")
	l.v.SetDefault("storage.compression", "")
	l.v.SetDefault("storage.s3.region", "")
	l.v.SetDefault("storage.s3.endpoint", "")
	l.v.SetDefault("storage.s3.use_path_style", false)
	l.v.SetDefault("storage.s3.sse_enabled", false)
	l.v.SetDefault("storage.s3.sse_kms_key_id", "")
	l.v.SetDefault("storage.gcs.project_id", "")
	l.v.SetDefault("storage.gcs.credentials_file", "")
	l.v.SetDefault("storage.gcs.credentials_json", "")
	l.v.SetDefault("storage.gcs.endpoint", "")
	l.v.SetDefault("storage.gcs.use_default_credential", true)
	l.v.SetDefault("storage.azure.account_name", "")
	l.v.SetDefault("storage.azure.account_key", "")
	l.v.SetDefault("storage.azure.endpoint", "")
	l.v.SetDefault("storage.file.base_path", "")

	// Destination defaults
	l.v.SetDefault("destination.bucket", "")
	l.v.SetDefault("destination.prefix", "orders_parquet_datalake")
	l.v.SetDefault("destination.file_prefix", "orders_etl")
	l.v.SetDefault("destination.timezone", "UTC")

	// Catalog defaults
	l.v.SetDefault("catalog.enabled", true)
	l.v.SetDefault("catalog.provider", "glue")
	l.v.SetDefault("catalog.crawler_name", "etl_pipeline_crawler")
	l.v.SetDefault("catalog.region", "")
	l.v.SetDefault("catalog.endpoint", "")

	// Format defaults
	l.v.SetDefault("parquet.compression", "snappy")
	l.v.SetDefault("avro.codec", "deflate")

	// Kafka defaults
	l.v.SetDefault("kafka.bootstrap_servers", []string{})
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.sasl_username", "")
	l.v.SetDefault("kafka.sasl_password", "")
	l.v.SetDefault("kafka.aws_region", "us-east-1")
	l.v.SetDefault("kafka.consumer.group_id", "orders-etl")
	l.v.SetDefault("kafka.consumer.topics", []string{})
	l.v.SetDefault("kafka.consumer.auto_offset_reset", "earliest")
	l.v.SetDefault("kafka.consumer.max_poll_interval_ms", 300000)
	l.v.SetDefault("kafka.consumer.session_timeout_ms", 30000)
	l.v.SetDefault("kafka.consumer.heartbeat_interval_ms", 10000)
	l.v.SetDefault("kafka.dlq.enabled", true)
	l.v.SetDefault("kafka.dlq.topic_suffix", "-dlq")

	// Server defaults
	l.v.SetDefault("server.port", 8080)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.push_gateway_url", "")
	l.v.SetDefault("observability.metrics.job", "orders-etl")
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	// Storage validation
	if !lo.Contains(supportedBackends, config.Storage.Backend) {
		return fmt.Errorf("unsupported storage backend: %s", config.Storage.Backend)
	}
	switch config.Storage.Backend {
	case "azure":
		if err := config.Storage.Azure.Validate(); err != nil {
			return fmt.Errorf("storage.azure: %w", err)
		}
	case "file":
		if err := config.Storage.File.Validate(); err != nil {
			return fmt.Errorf("storage.file: %w", err)
		}
	}
	if config.Storage.S3.SSEKMSKeyID != "" && !config.Storage.S3.SSEEnabled {
		return errors.New("storage.s3.sse_kms_key_id requires storage.s3.sse_enabled")
	}

	// Format validation
	if !lo.Contains(supportedFormats, config.Storage.Format) {
		return fmt.Errorf("unsupported storage format: %s", config.Storage.Format)
	}
	if config.Storage.Format == "avro" && !lo.Contains(avroCodecs, config.EffectiveCompression()) {
		return fmt.Errorf("unsupported avro codec: %s", config.EffectiveCompression())
	}

	// Destination validation
	if config.Destination.FilePrefix == "" {
		return errors.New("destination.file_prefix is required")
	}
	if _, err := config.Destination.Location(); err != nil {
		return fmt.Errorf("invalid destination.timezone: %w", err)
	}

	// Catalog validation
	if config.Catalog.Enabled && !lo.Contains(supportedProviders, config.Catalog.Provider) {
		return fmt.Errorf("unsupported catalog provider: %s", config.Catalog.Provider)
	}

	// Port validation
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if !lo.Contains(supportedLevels, strings.ToLower(config.Observability.Logging.Level)) {
		return fmt.Errorf("unsupported log level: %s", config.Observability.Logging.Level)
	}

	return nil
}

// ValidateKafka validates the settings the consume mode needs.
func (l *Loader) ValidateKafka(config *dto.ApplicationConfig) error {
	if err := config.Kafka.Validate(); err != nil {
		return err
	}
	switch config.Kafka.SecurityProtocol {
	case "PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL":
	default:
		return fmt.Errorf("unsupported kafka security protocol: %s", config.Kafka.SecurityProtocol)
	}
	return nil
}
