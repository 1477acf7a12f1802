package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emporia/emporia/internal/config"
)

func testConfig(t *testing.T) config.LoggingConfig {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()
	cfg.Console.Enabled = false
	return cfg
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(content)
}

func TestNewLogger_TextFormat(t *testing.T) {
	cfg := testConfig(t)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.With("component", "catalog").Info("product created", "product_id", "65f0")
	require.NoError(t, Shutdown())

	content := readLog(t, cfg.Dir, "emporia.log")
	assert.Contains(t, content, "[INFO] [catalog] product created product_id=65f0")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	cfg := testConfig(t)
	cfg.File.Format = "json"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("test json", "key", "value")
	require.NoError(t, Shutdown())

	content := readLog(t, cfg.Dir, "emporia.log")
	assert.Contains(t, content, `"msg":"test json"`)
	assert.Contains(t, content, `"key":"value"`)
}

func TestNewLogger_ErrorLogSeparation(t *testing.T) {
	cfg := testConfig(t)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("info message")
	logger.Warn("warning message")
	logger.Error("error message")
	require.NoError(t, Shutdown())

	main := readLog(t, cfg.Dir, "emporia.log")
	assert.Contains(t, main, "info message")
	assert.Contains(t, main, "warning message")
	assert.Contains(t, main, "error message")

	errs := readLog(t, cfg.Dir, "errors.log")
	assert.NotContains(t, errs, "info message")
	assert.Contains(t, errs, "warning message")
	assert.Contains(t, errs, "error message")
}

func TestNewLogger_FileLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.File.Level = "warn"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	require.NoError(t, Shutdown())

	main := readLog(t, cfg.Dir, "emporia.log")
	assert.NotContains(t, main, "quiet")
	assert.Contains(t, main, "loud")
}

func TestNewLogger_AllOutputsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dir = filepath.Join(cfg.Dir, "never-created")
	cfg.File.Enabled = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("dropped")

	assert.NoDirExists(t, cfg.Dir)
}

func TestNewLogger_BadDirectory(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.Dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.Dir = filepath.Join(blocker, "logs")

	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestInitialize_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	cfg := testConfig(t)
	require.NoError(t, Initialize(cfg))

	slog.Info("global test message")
	require.NoError(t, Shutdown())

	assert.Contains(t, readLog(t, cfg.Dir, "emporia.log"), "global test message")
}

func TestShutdown_Idempotent(t *testing.T) {
	assert.NoError(t, Shutdown())
	assert.NoError(t, Shutdown())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}
