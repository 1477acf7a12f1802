package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GatewayConfig controls the routes mounted beside the storefront API.
type GatewayConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig exposes the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (g *GatewayConfig) ApplyDefaults() {
	if g.Metrics.Path == "" {
		g.Metrics.Path = DefaultGatewayConfig().Metrics.Path
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (g *GatewayConfig) ApplyEnvOverrides() {
	if val := os.Getenv("METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			g.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("METRICS_PATH"); val != "" {
		g.Metrics.Path = val
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in gateway config.
func (g *GatewayConfig) ResolvePaths(_ string) { _ = g }

// Validate returns an error if the configuration is invalid.
func (g *GatewayConfig) Validate() error {
	if !g.Metrics.Enabled {
		return nil
	}
	if !strings.HasPrefix(g.Metrics.Path, "/") {
		return fmt.Errorf("gateway.metrics.path must start with /, got %q", g.Metrics.Path)
	}
	if strings.HasPrefix(g.Metrics.Path, "/api/") {
		return fmt.Errorf("gateway.metrics.path cannot live under /api/")
	}
	return nil
}
