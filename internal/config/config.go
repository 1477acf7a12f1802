package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	identity "github.com/emporia/emporia/internal/core/identity/config"
	pubsub "github.com/emporia/emporia/internal/core/pubsub"
	storage "github.com/emporia/emporia/internal/core/storage/config"
	api "github.com/emporia/emporia/internal/gateway/config"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/internal/mailer"
	server "github.com/emporia/emporia/internal/server"
	services "github.com/emporia/emporia/internal/services/config"
	"github.com/emporia/emporia/internal/shop"
)

// DefaultConfigDir is where LoadConfig looks for its files.
const DefaultConfigDir = "config"

// Config holds the application configuration
type Config struct {
	Deployment services.DeploymentConfig `yaml:"deployment"`
	Server     server.Config             `yaml:"server"`
	Logging    LoggingConfig             `yaml:"logging"`

	// Storefront
	Shop    shop.Config       `yaml:"shop"`
	Gateway api.GatewayConfig `yaml:"gateway"`

	// Components
	Storage   storage.Config   `yaml:"storage"`
	Identity  identity.Config  `yaml:"identity"`
	ImageHost imagehost.Config `yaml:"image_host"`
	Mailer    mailer.Config    `yaml:"mailer"`
	PubSub    pubsub.Config    `yaml:"pubsub"`
}

// Default returns the configuration used before any file is read.
func Default() *Config {
	return &Config{
		Deployment: services.DefaultDeploymentConfig(),
		Server:     server.DefaultConfig(),
		Logging:    DefaultLoggingConfig(),
		Shop:       shop.DefaultConfig(),
		Gateway:    api.DefaultGatewayConfig(),
		Storage:    storage.DefaultConfig(),
		Identity:   identity.DefaultConfig(),
		ImageHost:  imagehost.DefaultConfig(),
		Mailer:     mailer.DefaultConfig(),
		PubSub:     pubsub.DefaultConfig(),
	}
}

// LoadConfig loads the configuration from DefaultConfigDir and exits on error.
func LoadConfig() *Config {
	cfg, err := Load(DefaultConfigDir)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

// Load reads configuration from configDir.
// Order: defaults -> config.yml -> config.local.yml -> config.env -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate
//
// config.env holds KEY=value lines; variables already set in the
// environment are left alone.
func Load(configDir string) (*Config, error) {
	// Defaults first so YAML can override them, including bool fields
	cfg := Default()

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	envFile := filepath.Join(configDir, "config.env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := ApplyServiceConfigs(configDir,
		&cfg.Deployment,
		&cfg.Logging,
		&cfg.Server,
		&cfg.Storage,
		&cfg.Identity,
		&cfg.Shop,
		&cfg.Gateway,
		&cfg.ImageHost,
		&cfg.Mailer,
		&cfg.PubSub,
	); err != nil {
		return nil, err
	}

	if cfg.Deployment.Env.IsProduction() {
		cfg.Identity.AuthN.CookieSecure = true
	}

	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
