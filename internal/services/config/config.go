// Package config describes where the process runs.
package config

import (
	"fmt"
	"os"
)

// Environment selects production hardening. Production forces secure
// session cookies.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// DeploymentConfig holds deployment settings
type DeploymentConfig struct {
	Env Environment `yaml:"env"`
}

func DefaultDeploymentConfig() DeploymentConfig {
	return DeploymentConfig{Env: EnvDevelopment}
}

// ApplyDefaults fills in zero values with defaults.
func (c *DeploymentConfig) ApplyDefaults() {
	if c.Env == "" {
		c.Env = DefaultDeploymentConfig().Env
	}
}

// ApplyEnvOverrides reads APP_ENV, falling back to NODE_ENV which existing
// deployments of the storefront already set.
func (c *DeploymentConfig) ApplyEnvOverrides() {
	if val := os.Getenv("NODE_ENV"); val != "" {
		c.Env = Environment(val)
	}
	if val := os.Getenv("APP_ENV"); val != "" {
		c.Env = Environment(val)
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in deployment config.
func (c *DeploymentConfig) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *DeploymentConfig) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("deployment.env must be 'development' or 'production', got '%s'", c.Env)
	}
	return nil
}
