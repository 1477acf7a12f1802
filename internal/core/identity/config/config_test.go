package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5*24*time.Hour, cfg.AuthN.JWTExpire)
	assert.Equal(t, 15*time.Minute, cfg.AuthN.ResetTokenTTL)
	assert.Equal(t, 8, cfg.AuthN.Password.MinLength)

	// No secret by default
	assert.Error(t, cfg.Validate())
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("JWT_EXPIRE", "2d")
	t.Setenv("COOKIE_EXPIRE", "3")
	t.Setenv("ADMIN_EMAIL", "root@example.com")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "0123456789abcdef-secret", cfg.AuthN.JWTSecret)
	assert.Equal(t, 48*time.Hour, cfg.AuthN.JWTExpire)
	assert.Equal(t, 72*time.Hour, cfg.AuthN.CookieExpire)
	assert.Equal(t, "root@example.com", cfg.AuthN.AdminEmail)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ApplyEnvOverrides_InvalidIgnored(t *testing.T) {
	t.Setenv("JWT_EXPIRE", "soon")
	t.Setenv("COOKIE_EXPIRE", "-1")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, DefaultConfig().AuthN.JWTExpire, cfg.AuthN.JWTExpire)
	assert.Equal(t, DefaultConfig().AuthN.CookieExpire, cfg.AuthN.CookieExpire)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthN.JWTSecret = "short"
	assert.ErrorContains(t, cfg.Validate(), "at least 16")

	cfg.AuthN.JWTSecret = "long-enough-secret-value"
	cfg.AuthN.JWTExpire = 0
	assert.ErrorContains(t, cfg.Validate(), "jwt_expire")
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultConfig().AuthN, cfg.AuthN)
}

func TestConfig_ResolvePaths(t *testing.T) {
	cfg := Config{AuthZ: AuthZConfig{RulesFile: "policy.yml"}}
	cfg.ResolvePaths("/etc/emporia")
	assert.Equal(t, filepath.Join("/etc/emporia", "policy.yml"), cfg.AuthZ.RulesFile)

	cfg.ResolvePaths("/other")
	assert.Equal(t, filepath.Join("/etc/emporia", "policy.yml"), cfg.AuthZ.RulesFile)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = ParseDuration("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}
