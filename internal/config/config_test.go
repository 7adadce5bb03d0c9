package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.SmartPoll)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, 10, cfg.AnalyticsTopK)
	assert.Equal(t, 0, cfg.BufferCap)
}

func TestRoot(t *testing.T) {
	t.Run("defaults to ~/.logria", func(t *testing.T) {
		t.Setenv("LOGRIA_CONFIG_DIR", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".logria"), Root())
	})

	t.Run("LOGRIA_CONFIG_DIR overrides the root entirely", func(t *testing.T) {
		t.Setenv("LOGRIA_CONFIG_DIR", "/tmp/custom-logria")
		assert.Equal(t, "/tmp/custom-logria", Root())
	})
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("LOGRIA_CONFIG_DIR", tmpDir)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, tmpDir, cfg.Root)
	})

	t.Run("loads config from $CONFIG/config.yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("LOGRIA_CONFIG_DIR", tmpDir)

		content := "level: debug\nsmart_poll: false\nanalytics_top_k: 5\n"
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(content), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Level)
		assert.False(t, cfg.SmartPoll)
		assert.Equal(t, 5, cfg.AnalyticsTopK)
	})

	t.Run("rejects an invalid level", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("LOGRIA_CONFIG_DIR", tmpDir)
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("level: noisy\n"), 0o644))

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConfigEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOGRIA_CONFIG_DIR", tmpDir)
	t.Setenv("LOGRIA_LEVEL", "debug")
	t.Setenv("LOGRIA_SMART_POLL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.False(t, cfg.SmartPoll)
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{Root: "/tmp/logria-root"}
	assert.Equal(t, "/tmp/logria-root/parsers", cfg.ParsersDir())
	assert.Equal(t, "/tmp/logria-root/sessions", cfg.SessionsDir())
	assert.Equal(t, "/tmp/logria-root/history/tape", cfg.HistoryPath())
}
