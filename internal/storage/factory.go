package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/imedwei/gfs-backup/internal/config"
)

// RetryConfig holds retry configuration for storage operations.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryableStorage wraps a Gateway with exponential backoff retry logic.
type RetryableStorage struct {
	gateway Gateway
	config  RetryConfig
}

// NewRetryableStorage creates a new storage wrapper with retry logic.
func NewRetryableStorage(gateway Gateway, config RetryConfig) *RetryableStorage {
	return &RetryableStorage{
		gateway: gateway,
		config:  config,
	}
}

// Upload implements Gateway.Upload with retry logic. When the reader is
// seekable it is rewound before each attempt; a non-seekable reader that was
// partially consumed cannot be retried safely, so the first error is final.
func (r *RetryableStorage) Upload(ctx context.Context, key string, reader io.Reader, metadata map[string]string) error {
	seeker, canRewind := reader.(io.Seeker)
	if !canRewind {
		return r.gateway.Upload(ctx, key, reader, metadata)
	}

	return r.retry(ctx, func() error {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind upload stream: %w", err)
		}
		return r.gateway.Upload(ctx, key, reader, metadata)
	})
}

// Delete implements Gateway.Delete with retry logic.
func (r *RetryableStorage) Delete(ctx context.Context, key string) error {
	return r.retry(ctx, func() error {
		return r.gateway.Delete(ctx, key)
	})
}

// List implements Gateway.List with retry logic.
func (r *RetryableStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var result []ObjectInfo
	err := r.retry(ctx, func() error {
		var err error
		result, err = r.gateway.List(ctx, prefix)
		return err
	})
	return result, err
}

// LastBackupTime implements Gateway.LastBackupTime with retry logic.
func (r *RetryableStorage) LastBackupTime(ctx context.Context, prefix string) (time.Time, error) {
	var result time.Time
	err := r.retry(ctx, func() error {
		var err error
		result, err = r.gateway.LastBackupTime(ctx, prefix)
		return err
	})
	return result, err
}

// retry executes a function with exponential backoff retry logic.
func (r *RetryableStorage) retry(ctx context.Context, fn func() error) error {
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if attempt == r.config.MaxAttempts {
			return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}

	return nil
}

// New creates a storage gateway from configuration, wrapped with retries.
func New(ctx context.Context, cfg config.StorageConfig) (Gateway, error) {
	var gateway Gateway
	var err error

	switch cfg.Provider {
	case "s3":
		gateway, err = NewS3Storage(ctx, S3Config{
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.Prefix,
			UsePathStyle:    cfg.S3.Endpoint != "", // Use path style for custom endpoints
		})

	case "gcs":
		if cfg.GCS.ServiceAccountJSON != "" {
			if err := ValidateServiceAccountJSON(cfg.GCS.ServiceAccountJSON); err != nil {
				return nil, fmt.Errorf("invalid GCS service account: %w", err)
			}
		}
		gateway, err = NewGCSStorage(ctx, GCSConfig{
			Bucket:             cfg.GCS.Bucket,
			ProjectID:          cfg.GCS.ProjectID,
			ServiceAccountJSON: cfg.GCS.ServiceAccountJSON,
			Prefix:             cfg.Prefix,
		})

	case "local":
		gateway, err = newPrefixedLocal(cfg.Local.Path, cfg.Prefix)

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Provider, err)
	}

	return NewRetryableStorage(gateway, DefaultRetryConfig()), nil
}

// newPrefixedLocal nests the local root under the configured key prefix so
// all providers treat the prefix uniformly.
func newPrefixedLocal(root, prefix string) (*LocalStorage, error) {
	if prefix != "" {
		root = filepath.Join(root, filepath.FromSlash(prefix))
	}
	return NewLocalStorage(root)
}
