// Package storage implements S3 object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jittakal/ordersetl/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.ObjectStore = (*S3Store)(nil)

// S3Config contains AWS S3 configuration.
type S3Config struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	SSEEnabled   bool
	SSEKMSKeyID  string
}

// Validate checks the configuration.
func (c S3Config) Validate() error {
	if c.SSEKMSKeyID != "" && !c.SSEEnabled {
		return fmt.Errorf("s3 sse_kms_key_id requires sse_enabled")
	}
	return nil
}

// s3Getter is the subset of *s3.Client the store reads with.
type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Uploader is the subset of *manager.Uploader the store writes with.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store implements storage.ObjectStore for AWS S3 and S3-compatible services.
// It provides multipart upload support and server-side encryption (SSE).
type S3Store struct {
	base
	client      s3Getter
	uploader    s3Uploader
	sseEnabled  bool
	sseKMSKeyID string
}

// NewS3Store creates a new S3 object store using the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger, metrics MetricsCollector) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB parts
		u.Concurrency = 5
	})

	store := newS3Store(s3Client, uploader, cfg, logger, metrics)
	store.logger.Info("S3 store created",
		"region", awsConfig.Region,
		"endpoint", cfg.Endpoint,
		"sse_enabled", cfg.SSEEnabled,
	)
	return store, nil
}

func newS3Store(client s3Getter, uploader s3Uploader, cfg S3Config, logger *slog.Logger, metrics MetricsCollector) *S3Store {
	return &S3Store{
		base:        newBase(BackendS3, "s3", logger, metrics),
		client:      client,
		uploader:    uploader,
		sseEnabled:  cfg.SSEEnabled,
		sseKMSKeyID: cfg.SSEKMSKeyID,
	}
}

// Get downloads the whole object.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := s.check("get", bucket, key); err != nil {
		return nil, err
	}
	defer s.observe("get", time.Now())

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.fail("get", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.fail("get", bucket, key, fmt.Errorf("failed to read object body: %w", err))
	}
	return data, nil
}

// Put uploads body, switching to multipart for large payloads.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (int64, error) {
	if err := s.check("put", bucket, key); err != nil {
		return 0, err
	}
	defer s.observe("put", time.Now())

	counter := &countingReader{r: body}
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   counter,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if s.sseEnabled {
		if s.sseKMSKeyID != "" {
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			input.SSEKMSKeyId = aws.String(s.sseKMSKeyID)
		} else {
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return 0, s.fail("put", bucket, key, fmt.Errorf("failed to upload to S3: %w", err))
	}

	s.logger.Debug("uploaded object to S3",
		"bucket", bucket,
		"key", key,
		"size", counter.n,
		"location", result.Location,
	)
	return counter.n, nil
}

// Close closes the S3 store.
func (s *S3Store) Close() error {
	s.markClosed()
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
