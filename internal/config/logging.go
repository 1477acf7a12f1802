package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// LoggingConfig holds logging configuration. Console and File inherit the
// top-level level and format unless they set their own.
type LoggingConfig struct {
	Level    string         `yaml:"level"`
	Format   string         `yaml:"format"`
	Dir      string         `yaml:"dir"`
	Rotation RotationConfig `yaml:"rotation"`
	Console  OutputConfig   `yaml:"console"`
	File     OutputConfig   `yaml:"file"`
}

// RotationConfig is handed to lumberjack as is.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

type OutputConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Dir:    "logs",
		Rotation: RotationConfig{
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		Console: OutputConfig{Enabled: true, Level: "info", Format: "text"},
		File:    OutputConfig{Enabled: true, Level: "info", Format: "text"},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *LoggingConfig) ApplyDefaults() {
	defaults := DefaultLoggingConfig()
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Dir == "" {
		c.Dir = defaults.Dir
	}
	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = defaults.Rotation.MaxSize
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = defaults.Rotation.MaxBackups
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = defaults.Rotation.MaxAge
	}
	c.Console.inherit(c.Level, c.Format)
	c.File.inherit(c.Level, c.Format)
}

// inherit fills an output's level and format. Enabled is left as given.
func (o *OutputConfig) inherit(level, format string) {
	if o.Level == "" {
		o.Level = level
	}
	if o.Format == "" {
		o.Format = format
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// LOG_LEVEL and LOG_FORMAT also replace the per-output settings.
func (c *LoggingConfig) ApplyEnvOverrides() {
	if val := strings.ToLower(os.Getenv("LOG_LEVEL")); val != "" {
		c.Level, c.Console.Level, c.File.Level = val, val, val
	}
	if val := strings.ToLower(os.Getenv("LOG_FORMAT")); val != "" {
		c.Format, c.Console.Format, c.File.Format = val, val, val
	}
	if val := os.Getenv("LOG_DIR"); val != "" {
		c.Dir = val
	}
}

// ResolvePaths places a relative log dir next to the config dir, not inside
// it. Paths starting with ".." are taken relative to the config dir itself.
func (c *LoggingConfig) ResolvePaths(configDir string) {
	if c.Dir == "" || filepath.IsAbs(c.Dir) {
		return
	}
	base := filepath.Dir(configDir)
	if strings.HasPrefix(c.Dir, "..") {
		base = configDir
	}
	c.Dir = filepath.Clean(filepath.Join(base, c.Dir))
}

// Validate returns an error if the configuration is invalid.
func (c *LoggingConfig) Validate() error {
	if !oneOf(c.Level, logLevels) {
		return fmt.Errorf("logging.level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Level)
	}
	if !oneOf(c.Format, logFormats) {
		return fmt.Errorf("logging.format must be one of %s, got %q", strings.Join(logFormats, ", "), c.Format)
	}
	if c.File.Enabled && c.Dir == "" {
		return fmt.Errorf("logging.dir cannot be empty when file output is enabled")
	}
	for name, out := range map[string]OutputConfig{"console": c.Console, "file": c.File} {
		if !out.Enabled {
			continue
		}
		if out.Level != "" && !oneOf(out.Level, logLevels) {
			return fmt.Errorf("logging.%s.level is invalid: %q", name, out.Level)
		}
		if out.Format != "" && !oneOf(out.Format, logFormats) {
			return fmt.Errorf("logging.%s.format is invalid: %q", name, out.Format)
		}
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
