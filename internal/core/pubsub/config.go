package pubsub

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// NATSURL enables the JetStream publisher. Empty keeps events in process.
	NATSURL       string `yaml:"nats_url"`
	StreamName    string `yaml:"stream_name"`
	RetryAttempts int    `yaml:"retry_attempts"`
	FileStorage   bool   `yaml:"file_storage"`
}

func DefaultConfig() Config {
	return Config{
		StreamName:    "EMPORIA",
		RetryAttempts: 2,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.StreamName == "" {
		c.StreamName = DefaultConfig().StreamName
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("NATS_URL"); val != "" {
		c.NATSURL = val
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in pubsub config.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.NATSURL != "" && !strings.HasPrefix(c.NATSURL, "nats://") && !strings.HasPrefix(c.NATSURL, "tls://") {
		return fmt.Errorf("pubsub.nats_url must start with nats:// or tls://, got %q", c.NATSURL)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("pubsub.retry_attempts cannot be negative")
	}
	return nil
}

// PublisherOptions converts the config into options for a publisher.
func (c Config) PublisherOptions() PublisherOptions {
	storage := MemoryStorage
	if c.FileStorage {
		storage = FileStorage
	}
	return PublisherOptions{
		StreamName:    c.StreamName,
		SubjectPrefix: c.StreamName,
		RetryAttempts: c.RetryAttempts,
		Storage:       storage,
	}
}
