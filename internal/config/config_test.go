package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.Steps)
	assert.Equal(t, 50*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Sound)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MINETWIN_ADDR", ":9090")
	t.Setenv("MINETWIN_STEPS", "10")
	t.Setenv("MINETWIN_STEP_DELAY", "5ms")
	t.Setenv("MINETWIN_SEED", "42")
	t.Setenv("MINETWIN_SOUND", "false")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 10, cfg.Steps)
	assert.Equal(t, 5*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.False(t, cfg.Sound)
}

func TestGetEnv(t *testing.T) {
	result := getEnv("NONEXISTENT_VAR_12345", "default")
	if result != "default" {
		t.Errorf("expected 'default', got '%s'", result)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("MINETWIN_STEPS", "many")
	t.Setenv("MINETWIN_STEP_DELAY", "-1s")

	cfg := Load()

	assert.Equal(t, 100, cfg.Steps)
	assert.Equal(t, 50*time.Millisecond, cfg.StepDelay)
}

func TestConsoleLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	cfg := Config{LogLevel: "debug", LogFile: path}

	log, closeLog, err := cfg.ConsoleLogger("test")
	require.NoError(t, err)
	log.Info("hello", "k", 1)
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello")
}

func TestConsoleLoggerWithoutFileIsSilent(t *testing.T) {
	log, closeLog, err := Config{}.ConsoleLogger("test")
	require.NoError(t, err)
	log.Info("dropped")
	assert.NoError(t, closeLog())
}
