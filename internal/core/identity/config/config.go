package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AuthN AuthNConfig `yaml:"authn"`
	AuthZ AuthZConfig `yaml:"authz"`
}

type AuthNConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpire time.Duration `yaml:"jwt_expire"`
	// CookieExpire is how long the browser keeps the session cookie.
	CookieExpire  time.Duration        `yaml:"cookie_expire"`
	CookieSecure  bool                 `yaml:"cookie_secure"`
	ResetTokenTTL time.Duration        `yaml:"reset_token_ttl"`
	AdminEmail    string               `yaml:"admin_email"`
	Password      PasswordPolicyConfig `yaml:"password_policy"`
}

// PasswordPolicyConfig defines password strength requirements
type PasswordPolicyConfig struct {
	MinLength        int  `yaml:"min_length"`
	RequireUppercase bool `yaml:"require_uppercase"`
	RequireDigit     bool `yaml:"require_digit"`
}

type AuthZConfig struct {
	// RulesFile optionally replaces the built-in policy.
	RulesFile string `yaml:"rules_file"`
}

func DefaultConfig() Config {
	return Config{
		AuthN: AuthNConfig{
			JWTExpire:     5 * 24 * time.Hour,
			CookieExpire:  5 * 24 * time.Hour,
			ResetTokenTTL: 15 * time.Minute,
			Password: PasswordPolicyConfig{
				MinLength: 8,
			},
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.AuthN.JWTExpire == 0 {
		c.AuthN.JWTExpire = defaults.AuthN.JWTExpire
	}
	if c.AuthN.CookieExpire == 0 {
		c.AuthN.CookieExpire = defaults.AuthN.CookieExpire
	}
	if c.AuthN.ResetTokenTTL == 0 {
		c.AuthN.ResetTokenTTL = defaults.AuthN.ResetTokenTTL
	}
	if c.AuthN.Password.MinLength == 0 {
		c.AuthN.Password.MinLength = defaults.AuthN.Password.MinLength
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// JWT_EXPIRE accepts Go durations or a day count such as "5d".
// COOKIE_EXPIRE is a number of days.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.AuthN.JWTSecret = val
	}
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		if d, err := ParseDuration(val); err == nil {
			c.AuthN.JWTExpire = d
		}
	}
	if val := os.Getenv("COOKIE_EXPIRE"); val != "" {
		if days, err := strconv.Atoi(val); err == nil && days > 0 {
			c.AuthN.CookieExpire = time.Duration(days) * 24 * time.Hour
		}
	}
	if val := os.Getenv("ADMIN_EMAIL"); val != "" {
		c.AuthN.AdminEmail = val
	}
}

// ResolvePaths resolves relative paths using the given base directory.
func (c *Config) ResolvePaths(baseDir string) {
	if c.AuthZ.RulesFile != "" && !filepath.IsAbs(c.AuthZ.RulesFile) {
		c.AuthZ.RulesFile = filepath.Join(baseDir, c.AuthZ.RulesFile)
	}
}

func (c *Config) Validate() error {
	if c.AuthN.JWTSecret == "" {
		return fmt.Errorf("identity.authn.jwt_secret is required (or set JWT_SECRET)")
	}
	if len(c.AuthN.JWTSecret) < 16 {
		return fmt.Errorf("identity.authn.jwt_secret must be at least 16 characters")
	}
	if c.AuthN.JWTExpire <= 0 {
		return fmt.Errorf("identity.authn.jwt_expire must be positive")
	}
	return nil
}

// ParseDuration accepts time.ParseDuration input plus whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
