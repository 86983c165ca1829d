package browser

import (
	"fmt"

	"github.com/entrhq/slack-bridge/pkg/config"
	"github.com/entrhq/slack-bridge/pkg/logging"
)

// New returns the engine selected by cfg.Engine.
func New(cfg *config.Config, log *logging.Logger) (Engine, error) {
	switch cfg.Engine {
	case config.EnginePlaywright, "":
		return NewPlaywrightEngine(log), nil
	case config.EngineRod:
		return NewRodEngine(cfg.BrowserPath, log), nil
	default:
		return nil, fmt.Errorf("invalid engine: %s", cfg.Engine)
	}
}

// LaunchOptionsFor builds launch options from cfg.
func LaunchOptionsFor(cfg *config.Config, headed bool) LaunchOptions {
	return LaunchOptions{
		Headed: headed,
		Viewport: &Viewport{
			Width:  cfg.Viewport.Width,
			Height: cfg.Viewport.Height,
		},
	}
}
