package browser

import (
	"context"
	"time"
)

// Engine launches browser instances.
type Engine interface {
	// Launch starts a browser. The caller must Close it.
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser process.
type Browser interface {
	// NewContext creates an isolated browsing context, optionally seeded
	// from a storage-state blob previously returned by Context.StorageState.
	NewContext(ctx context.Context, opts ContextOptions) (Context, error)

	// Wait blocks until the browser disconnects (for example because the
	// user closed its window) or ctx is done.
	Wait(ctx context.Context) error

	// Close shuts the browser down and releases its OS resources.
	Close() error
}

// Context is an isolated browsing context with its own cookies and storage.
type Context interface {
	NewPage(ctx context.Context) (Page, error)

	// StorageState exports the context's cookies and local storage as an
	// opaque JSON blob.
	StorageState(ctx context.Context) ([]byte, error)
}

// Page is a single tab.
type Page interface {
	// Goto navigates and waits for the DOMContentLoaded milestone. It fails
	// with ErrNavigationTimeout if the milestone is not reached in time.
	Goto(ctx context.Context, url string, timeout time.Duration) error

	// URL returns the current page URL.
	URL() string

	// Evaluate runs script in the page and returns its JSON-compatible value.
	// The script may be an expression or a function, which is invoked.
	Evaluate(ctx context.Context, script string) (interface{}, error)

	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	Click(ctx context.Context, selector string) error

	// Wait pauses for d, returning early with ctx's error if it ends.
	Wait(ctx context.Context, d time.Duration) error

	// Screenshot writes a PNG of the viewport (or the full page) to path.
	Screenshot(ctx context.Context, path string, fullPage bool) error

	// Content returns the serialized current DOM.
	Content(ctx context.Context) (string, error)
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	// Headed shows a browser window instead of running headless
	Headed bool

	// Viewport sets the page viewport size; nil uses the defaults
	Viewport *Viewport
}

// ContextOptions configures a new browsing context.
type ContextOptions struct {
	// StorageState seeds cookies and local storage; empty means fresh
	StorageState []byte
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default values for various operations
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

func viewportOrDefault(v *Viewport) Viewport {
	if v == nil || v.Width <= 0 || v.Height <= 0 {
		return Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	return *v
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
