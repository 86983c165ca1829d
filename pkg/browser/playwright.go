package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/slack-bridge/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// PlaywrightEngine launches Chromium through playwright-go. Each launch
// starts its own driver, stopped again when the browser is closed.
type PlaywrightEngine struct {
	log *logging.Logger
}

// NewPlaywrightEngine creates a Playwright-backed engine. log may be nil.
func NewPlaywrightEngine(log *logging.Logger) *PlaywrightEngine {
	return &PlaywrightEngine{log: log}
}

// Launch installs the driver and Chromium if needed, then launches Chromium.
func (e *PlaywrightEngine) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Driver output goes to the log; stdout carries only the JSON result
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   e.log.Writer(),
		Stderr:   e.log.Writer(),
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := !opts.Headed
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	e.log.Debugf("launched chromium via playwright (headless=%t)", headless)

	return &playwrightBrowser{
		pw:       pw,
		browser:  browser,
		viewport: viewportOrDefault(opts.Viewport),
		log:      e.log,
	}, nil
}

type playwrightBrowser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	viewport  Viewport
	log       *logging.Logger
	closeOnce sync.Once
	closeErr  error
}

func (b *playwrightBrowser) NewContext(ctx context.Context, opts ContextOptions) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  b.viewport.Width,
			Height: b.viewport.Height,
		},
	}

	if len(opts.StorageState) > 0 {
		var state playwright.OptionalStorageState
		if err := json.Unmarshal(opts.StorageState, &state); err != nil {
			return nil, fmt.Errorf("failed to decode storage state: %w", err)
		}
		contextOpts.StorageState = &state
	}

	bctx, err := b.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return &playwrightContext{context: bctx}, nil
}

func (b *playwrightBrowser) Wait(ctx context.Context) error {
	done := make(chan struct{})
	var once sync.Once
	disconnected := func() { once.Do(func() { close(done) }) }

	// Register first so a disconnect between the two calls is not missed
	b.browser.OnDisconnected(func(playwright.Browser) { disconnected() })
	if !b.browser.IsConnected() {
		disconnected()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *playwrightBrowser) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.closeErr = errors.Join(errs...)
		b.log.Debugf("closed playwright browser")
	})
	return b.closeErr
}

type playwrightContext struct {
	context playwright.BrowserContext
}

func (c *playwrightContext) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) StorageState(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, err := c.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to export storage state: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage state: %w", err)
	}
	return data, nil
}

// playwrightPage adapts a Playwright page. Playwright calls are not
// context-aware, so ctx is checked before each one.
type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	timeoutMs := float64(timeout.Milliseconds())

	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &timeoutMs,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return &NavigationTimeoutError{URL: url, Timeout: timeout, Err: err}
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	return result, nil
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Press(selector, key); err != nil {
		return fmt.Errorf("press failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     &path,
		FullPage: &fullPage,
	}); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}
