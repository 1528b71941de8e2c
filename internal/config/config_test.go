package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("STORYLOOM_AI_API_KEY", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "autosave", cfg.AutosaveSlot)
	assert.False(t, cfg.AIEnabled())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORYLOOM_AI_API_KEY", "sk-test")
	t.Setenv("STORYLOOM_AI_MODEL", "test-model")
	t.Setenv("STORYLOOM_AI_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, "test-model", cfg.AIModel)
	assert.Equal(t, "5s", cfg.AITimeout.String())
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORYLOOM_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("STORYLOOM_LOG_LEVEL", "")
	os.Unsetenv("STORYLOOM_LOG_LEVEL")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestMissingEnvFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
