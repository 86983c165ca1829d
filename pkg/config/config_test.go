package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	root := t.TempDir()

	cfg, err := Default(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "sessions"), cfg.SessionsDir)
	assert.Equal(t, filepath.Join(root, "logs"), cfg.LogDir)
	assert.Equal(t, "https://app.slack.com", cfg.DefaultURL)
	assert.Equal(t, 30*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, EnginePlaywright, cfg.Engine)
	assert.Equal(t, os.TempDir(), cfg.ScreenshotDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	content := `
sessions_dir: /tmp/custom-sessions
engine: rod
navigation_timeout: 45s
viewport:
  width: 1600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv(EnvSessionsDir, "")
	t.Setenv(EnvEngine, "")
	t.Setenv(EnvDefaultURL, "")
	t.Setenv(EnvLogDir, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom-sessions", cfg.SessionsDir)
	assert.Equal(t, EngineRod, cfg.Engine)
	assert.Equal(t, 45*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 1600, cfg.Viewport.Width)
	assert.Equal(t, DefaultViewportHeight, cfg.Viewport.Height, "omitted keys keep defaults")
	assert.Equal(t, DefaultURL, cfg.DefaultURL)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SessionsDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [unterminated"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sessions_dir: /from/file\n"), 0600))

	t.Setenv(EnvSessionsDir, "/from/env")
	t.Setenv(EnvDefaultURL, "https://example.slack.com")
	t.Setenv(EnvEngine, "")
	t.Setenv(EnvLogDir, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.SessionsDir)
	assert.Equal(t, "https://example.slack.com", cfg.DefaultURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError string
	}{
		{
			name:        "empty sessions dir",
			mutate:      func(c *Config) { c.SessionsDir = "" },
			expectError: "sessions directory is required",
		},
		{
			name:        "empty default url",
			mutate:      func(c *Config) { c.DefaultURL = "" },
			expectError: "default url is required",
		},
		{
			name:        "zero timeout",
			mutate:      func(c *Config) { c.NavigationTimeout = 0 },
			expectError: "navigation timeout must be positive",
		},
		{
			name:        "unknown engine",
			mutate:      func(c *Config) { c.Engine = "webkit" },
			expectError: "invalid engine",
		},
		{
			name:        "bad viewport",
			mutate:      func(c *Config) { c.Viewport.Height = 0 },
			expectError: "viewport must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default(t.TempDir())
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}
