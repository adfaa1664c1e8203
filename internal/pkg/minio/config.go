package minio

import (
	"errors"
	"time"
)

// BucketLookupType selects virtual-host or path style bucket addressing.
type BucketLookupType string

const (
	BucketLookupAuto BucketLookupType = "auto"
	BucketLookupDNS  BucketLookupType = "dns"
	BucketLookupPath BucketLookupType = "path"
)

// Config describes an S3-compatible endpoint.
type Config struct {
	// Endpoint is host[:port] without scheme, e.g. "localhost:9000".
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Region skips the bucket location lookup when set.
	Region       string
	UseSSL       bool
	BucketLookup BucketLookupType

	// MaxObjectSize caps ReadObject. Zero means 4 MiB.
	MaxObjectSize int64
	// RequestTimeout bounds each call made through the wrapper.
	RequestTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		UseSSL:         true,
		BucketLookup:   BucketLookupAuto,
		MaxObjectSize:  4 << 20,
		RequestTimeout: 30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("minio: endpoint is required")
	}
	if c.AccessKeyID == "" {
		return errors.New("minio: access key ID is required")
	}
	if c.SecretAccessKey == "" {
		return errors.New("minio: secret access key is required")
	}
	switch c.BucketLookup {
	case "", BucketLookupAuto, BucketLookupDNS, BucketLookupPath:
	default:
		return errors.New("minio: invalid bucket lookup type")
	}
	if c.MaxObjectSize < 0 || c.RequestTimeout < 0 {
		return errors.New("minio: size and timeout limits must be >= 0")
	}
	return nil
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.BucketLookup == "" {
		c.BucketLookup = BucketLookupAuto
	}
	if c.MaxObjectSize == 0 {
		c.MaxObjectSize = 4 << 20
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}
