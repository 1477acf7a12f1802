package mailer

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the SMTP relay settings. An empty Host logs messages instead of sending them.
type Config struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Port:    587,
		From:    "no-reply@emporia.local",
		Timeout: 10 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.From == "" {
		c.From = defaults.From
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.From = val
	}
}

// ResolvePaths is a no-op; the mailer has no local paths.
func (c *Config) ResolvePaths(_ string) {}

func (c *Config) Validate() error {
	if c.Host == "" {
		return nil
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mailer.port must be between 1 and 65535")
	}
	if c.From == "" {
		return fmt.Errorf("mailer.from is required when mailer.host is set")
	}
	return nil
}
