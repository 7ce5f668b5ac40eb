// Package storage keeps documents in S3-compatible object storage.
//
// It covers what the service archives: small JSON reports written once,
// read back rarely and shared through pre-signed URLs.
package storage

import (
	"context"
	"io"
	"time"
)

// Storage is a minimal object store.
type Storage interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error)

	// Get opens the object at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// SignedURL returns a time-limited download URL for key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Bucket    string `env:"STORAGE_BUCKET"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Endpoint is a custom endpoint, e.g. MinIO. Empty means AWS.
	Endpoint  string `env:"STORAGE_ENDPOINT"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	PathStyle bool   `env:"STORAGE_PATH_STYLE"`

	URLExpiry time.Duration `env:"STORAGE_URL_EXPIRY" envDefault:"24h"`
}

// Configured reports whether a bucket and credentials are set.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Object describes a stored object.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Default configuration values.
const (
	DefaultRegion    = "us-east-1"
	DefaultURLExpiry = 24 * time.Hour
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.URLExpiry <= 0 {
		c.URLExpiry = DefaultURLExpiry
	}
}
