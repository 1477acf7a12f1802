package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Mongo       MongoConfig       `yaml:"mongo"`
	Collections CollectionsConfig `yaml:"collections"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	DatabaseName   string        `yaml:"database_name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type CollectionsConfig struct {
	Products string `yaml:"products"`
	Users    string `yaml:"users"`
	Orders   string `yaml:"orders"`
}

func DefaultConfig() Config {
	return Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			DatabaseName:   "emporia",
			ConnectTimeout: 10 * time.Second,
		},
		Collections: CollectionsConfig{
			Products: "products",
			Users:    "users",
			Orders:   "orders",
		},
	}
}

func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri is required")
	}
	if c.Mongo.DatabaseName == "" {
		return fmt.Errorf("storage.mongo.database_name is required")
	}
	return nil
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Mongo.URI == "" {
		c.Mongo.URI = defaults.Mongo.URI
	}
	if c.Mongo.DatabaseName == "" {
		c.Mongo.DatabaseName = defaults.Mongo.DatabaseName
	}
	if c.Mongo.ConnectTimeout == 0 {
		c.Mongo.ConnectTimeout = defaults.Mongo.ConnectTimeout
	}
	if c.Collections.Products == "" {
		c.Collections.Products = defaults.Collections.Products
	}
	if c.Collections.Users == "" {
		c.Collections.Users = defaults.Collections.Users
	}
	if c.Collections.Orders == "" {
		c.Collections.Orders = defaults.Collections.Orders
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// DB_URI is the name the storefront deployments use; MONGO_URI is also accepted.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("DB_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Mongo.DatabaseName = val
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in storage config.
func (c *Config) ResolvePaths(_ string) { _ = c }
