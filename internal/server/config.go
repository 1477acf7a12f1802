package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emporia/emporia/internal/server/ratelimit"
)

// Config holds the configuration for the HTTP server.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	HTTPReadTimeout  time.Duration `yaml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `yaml:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `yaml:"http_idle_timeout"`

	// CORS
	EnableCORS       bool     `yaml:"enable_cors"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	CORSMaxAge       int      `yaml:"cors_max_age"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig limits every route per client, and the credential routes
// (login, register, password recovery) with a stricter budget.
type RateLimitConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Requests     int           `yaml:"requests"`
	Window       time.Duration `yaml:"window"`
	AuthRequests int           `yaml:"auth_requests"`
	AuthWindow   time.Duration `yaml:"auth_window"`
}

// DefaultConfig returns safe defaults for development.
func DefaultConfig() Config {
	general, auth := ratelimit.DefaultConfig(), ratelimit.AuthConfig()
	return Config{
		Host:             "0.0.0.0",
		Port:             4000,
		HTTPReadTimeout:  15 * time.Second,
		HTTPWriteTimeout: 75 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
		EnableCORS:       true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		CORSMaxAge:       86400,
		RateLimit: RateLimitConfig{
			Enabled:      true,
			Requests:     general.Requests,
			Window:       general.Window,
			AuthRequests: auth.Requests,
			AuthWindow:   auth.Window,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.HTTPReadTimeout == 0 {
		c.HTTPReadTimeout = defaults.HTTPReadTimeout
	}
	if c.HTTPWriteTimeout == 0 {
		c.HTTPWriteTimeout = defaults.HTTPWriteTimeout
	}
	if c.HTTPIdleTimeout == 0 {
		c.HTTPIdleTimeout = defaults.HTTPIdleTimeout
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = defaults.AllowedMethods
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = defaults.AllowedHeaders
	}
	if c.CORSMaxAge == 0 {
		c.CORSMaxAge = defaults.CORSMaxAge
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = defaults.RateLimit.Requests
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = defaults.RateLimit.Window
	}
	if c.RateLimit.AuthRequests == 0 {
		c.RateLimit.AuthRequests = defaults.RateLimit.AuthRequests
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = c.RateLimit.Window
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// PORT sets the listen port; CORS_ORIGINS is a comma separated allow list.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in server config.
func (c *Config) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Port)
	}
	if c.AllowCredentials {
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				return fmt.Errorf("server.allowed_origins cannot contain * when allow_credentials is set")
			}
		}
	}
	return nil
}
