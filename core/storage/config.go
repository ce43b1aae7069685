package storage

import "time"

// Config holds configuration for the snapshot archive bucket.
type Config struct {
	// Endpoint is host[:port] of the S3/MinIO service, optionally with a
	// scheme. Empty disables archiving.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey and SecretKey are the static credentials.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL forces TLS. An https:// endpoint implies it.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds the snapshot archives.
	Bucket string `mapstructure:"bucket" default:"fleet"`
	// Region is used when the bucket has to be created.
	Region string `mapstructure:"region" default:""`
	// SnapshotPrefix is the folder archives are written under.
	SnapshotPrefix string `mapstructure:"snapshot_prefix" default:"snapshots"`
	// TimeoutSeconds bounds connection setup and the wait for response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Timeout returns TimeoutSeconds as a duration, defaulting to 30s.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
