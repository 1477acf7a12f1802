// Package ratelimit provides per-client request limiting for the HTTP server.
package ratelimit

import (
	"time"
)

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(key string) bool

	// Reset clears the rate limit state for the given key.
	Reset(key string)
}

// Config holds the configuration for rate limiting.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// Requests is the burst size and the number of requests refilled per window.
	Requests int `yaml:"requests"`

	Window time.Duration `yaml:"window"`
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Requests: 100,
		Window:   time.Minute,
	}
}

// AuthConfig returns a stricter configuration for the credential endpoints
// (login, register, password recovery).
func AuthConfig() Config {
	return Config{
		Enabled:  true,
		Requests: 10,
		Window:   time.Minute,
	}
}
