// Package config holds the runtime configuration for the Slack bridge.
//
// Configuration is resolved in layers: built-in defaults, an optional YAML
// file, then SLACK_BRIDGE_* environment variables. Command-line flags are
// applied last by the caller. The resulting Config is passed explicitly to
// the session store and runtime; nothing here is global.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names a browser automation backend.
type Engine string

const (
	// EnginePlaywright drives Chromium through playwright-go (default)
	EnginePlaywright Engine = "playwright"
	// EngineRod drives Chromium through go-rod
	EngineRod Engine = "rod"
)

// Defaults
const (
	DefaultURL               = "https://app.slack.com"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)

// Environment variable overrides.
const (
	EnvSessionsDir = "SLACK_BRIDGE_SESSIONS_DIR"
	EnvDefaultURL  = "SLACK_BRIDGE_DEFAULT_URL"
	EnvEngine      = "SLACK_BRIDGE_ENGINE"
	EnvLogDir      = "SLACK_BRIDGE_LOG_DIR"
)

// Config represents the bridge configuration.
type Config struct {
	// SessionsDir is the root under which each session gets its own directory
	SessionsDir string `yaml:"sessions_dir" json:"sessions_dir"`

	// DefaultURL is navigated to when an operation names no url
	DefaultURL string `yaml:"default_url" json:"default_url"`

	// NavigationTimeout bounds every page navigation
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`

	// Engine selects the browser backend
	Engine Engine `yaml:"engine" json:"engine"`

	// BrowserPath optionally points the rod engine at a Chromium binary
	BrowserPath string `yaml:"browser_path" json:"browser_path"`

	Viewport Viewport `yaml:"viewport" json:"viewport"`

	// LogDir receives one log file per invocation
	LogDir string `yaml:"log_dir" json:"log_dir"`

	// ScreenshotDir receives screenshot files; defaults to the OS temp dir
	ScreenshotDir string `yaml:"screenshot_dir" json:"screenshot_dir"`
}

// Viewport is the browser viewport size in pixels.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// RootDir returns the per-agent configuration root, ~/.agents/config/slack.
func RootDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".agents", "config", "slack"), nil
}

// Default returns the built-in configuration rooted at the given directory.
// An empty root resolves to RootDir().
func Default(root string) (*Config, error) {
	if root == "" {
		var err error
		root, err = RootDir()
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		SessionsDir:       filepath.Join(root, "sessions"),
		DefaultURL:        DefaultURL,
		NavigationTimeout: DefaultNavigationTimeout,
		Engine:            EnginePlaywright,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		LogDir:        filepath.Join(root, "logs"),
		ScreenshotDir: os.TempDir(),
	}, nil
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists) and environment overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg, err := Default("")
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// mergeFile overlays the YAML file onto c. A missing file leaves c untouched.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults so omitted keys keep their values
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSessionsDir); v != "" {
		c.SessionsDir = v
	}
	if v := os.Getenv(EnvDefaultURL); v != "" {
		c.DefaultURL = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine = Engine(v)
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		c.LogDir = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SessionsDir == "" {
		return fmt.Errorf("sessions directory is required")
	}

	if c.DefaultURL == "" {
		return fmt.Errorf("default url is required")
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive, got %s", c.NavigationTimeout)
	}

	switch c.Engine {
	case EnginePlaywright, EngineRod:
	default:
		return fmt.Errorf("invalid engine: %s (must be 'playwright' or 'rod')", c.Engine)
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}

	return nil
}
