package imagehost

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the S3-compatible endpoint that stores product images and avatars.
// An empty Endpoint disables the host; every upload then fails with ErrDisabled.
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	Bucket          string `yaml:"bucket"`
	// PublicURL is the base of the URLs handed to clients. Defaults to the endpoint.
	PublicURL     string `yaml:"public_url"`
	MaxImageBytes int64  `yaml:"max_image_bytes"`
}

func DefaultConfig() Config {
	return Config{
		Bucket:        "emporia",
		MaxImageBytes: 5 << 20,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Bucket == "" {
		c.Bucket = defaults.Bucket
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = defaults.MaxImageBytes
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("IMAGE_HOST_ENDPOINT"); val != "" {
		c.Endpoint = val
	}
	if val := os.Getenv("IMAGE_HOST_ACCESS_KEY"); val != "" {
		c.AccessKeyID = val
	}
	if val := os.Getenv("IMAGE_HOST_SECRET_KEY"); val != "" {
		c.SecretAccessKey = val
	}
	if val := os.Getenv("IMAGE_HOST_BUCKET"); val != "" {
		c.Bucket = val
	}
	if val := os.Getenv("IMAGE_HOST_PUBLIC_URL"); val != "" {
		c.PublicURL = val
	}
	if val := os.Getenv("IMAGE_HOST_USE_SSL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.UseSSL = b
		}
	}
}

// ResolvePaths is a no-op; the image host has no local paths.
func (c *Config) ResolvePaths(_ string) {}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return nil
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("imagehost.access_key_id and imagehost.secret_access_key are required when imagehost.endpoint is set")
	}
	if c.Bucket == "" {
		return fmt.Errorf("imagehost.bucket is required")
	}
	return nil
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}
