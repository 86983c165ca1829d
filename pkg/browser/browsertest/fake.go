// Package browsertest provides an in-memory browser engine for tests.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/entrhq/slack-bridge/pkg/browser"
)

// BlankPage is served for URLs without registered content.
const BlankPage = `<html><head></head><body></body></html>`

// Action is one recorded page interaction.
type Action struct {
	Kind     string
	Selector string
	Value    string
}

// Engine is a fake browser.Engine. Pages are served from the Pages map and
// every interaction is recorded.
type Engine struct {
	mu sync.Mutex

	// Pages maps a URL to the HTML served for it
	Pages map[string]string
	// Scripts maps a script to the value Evaluate returns for it
	Scripts map[string]interface{}
	// TimeoutURLs never reach DOMContentLoaded
	TimeoutURLs map[string]bool
	// MissingSelectors fail fill, press and click
	MissingSelectors map[string]bool
	// ExportState, when set, is returned by every context's StorageState
	// in place of the state the context was seeded with
	ExportState []byte
	// LaunchErr fails every Launch
	LaunchErr error

	launches  []browser.LaunchOptions
	seeded    [][]byte
	actions   []Action
	browsers  []*Browser
	visited   []string
	evaluated []string
}

// NewEngine creates an empty fake engine.
func NewEngine() *Engine {
	return &Engine{
		Pages:            make(map[string]string),
		Scripts:          make(map[string]interface{}),
		TimeoutURLs:      make(map[string]bool),
		MissingSelectors: make(map[string]bool),
	}
}

// Launch implements browser.Engine.
func (e *Engine) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	e.launches = append(e.launches, opts)
	b := &Browser{engine: e, disconnected: make(chan struct{})}
	e.browsers = append(e.browsers, b)
	return b, nil
}

// Launches returns the options of every launch so far.
func (e *Engine) Launches() []browser.LaunchOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]browser.LaunchOptions(nil), e.launches...)
}

// Seeded returns the storage state each context was created with.
func (e *Engine) Seeded() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]byte(nil), e.seeded...)
}

// Actions returns every recorded interaction in order.
func (e *Engine) Actions() []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Action(nil), e.actions...)
}

// Visited returns every URL navigated to in order.
func (e *Engine) Visited() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.visited...)
}

// Evaluated returns every evaluated script in order.
func (e *Engine) Evaluated() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.evaluated...)
}

// OpenBrowsers counts launched browsers that have not been closed.
func (e *Engine) OpenBrowsers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, b := range e.browsers {
		if !b.closed {
			n++
		}
	}
	return n
}

// Disconnect simulates the user closing every open browser window.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.browsers {
		b.disconnectOnce.Do(func() { close(b.disconnected) })
	}
}

func (e *Engine) record(a Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions = append(e.actions, a)
}

// Browser is a fake browser.Browser.
type Browser struct {
	engine         *Engine
	closed         bool
	disconnected   chan struct{}
	disconnectOnce sync.Once
}

// NewContext implements browser.Browser.
func (b *Browser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := browser.ParseStorageState(opts.StorageState); err != nil {
		return nil, err
	}

	b.engine.mu.Lock()
	b.engine.seeded = append(b.engine.seeded, append([]byte(nil), opts.StorageState...))
	b.engine.mu.Unlock()

	return &Context{engine: b.engine, state: opts.StorageState}, nil
}

// Wait implements browser.Browser.
func (b *Browser) Wait(ctx context.Context) error {
	select {
	case <-b.disconnected:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements browser.Browser.
func (b *Browser) Close() error {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	b.closed = true
	return nil
}

// Context is a fake browser.Context.
type Context struct {
	engine *Engine
	state  []byte
}

// NewPage implements browser.Context.
func (c *Context) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Page{engine: c.engine, url: "about:blank"}, nil
}

// StorageState implements browser.Context.
func (c *Context) StorageState(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.engine.mu.Lock()
	export := c.engine.ExportState
	c.engine.mu.Unlock()
	if export != nil {
		return append([]byte(nil), export...), nil
	}

	state, err := browser.ParseStorageState(c.state)
	if err != nil {
		return nil, err
	}
	return state.Marshal()
}

// Page is a fake browser.Page.
type Page struct {
	engine *Engine
	url    string
}

// Goto implements browser.Page.
func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.engine.mu.Lock()
	p.engine.visited = append(p.engine.visited, url)
	hang := p.engine.TimeoutURLs[url]
	p.engine.mu.Unlock()

	if hang {
		return &browser.NavigationTimeoutError{URL: url, Timeout: timeout}
	}
	p.url = url
	return nil
}

// URL implements browser.Page.
func (p *Page) URL() string {
	return p.url
}

// Evaluate implements browser.Page.
func (p *Page) Evaluate(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	p.engine.evaluated = append(p.engine.evaluated, script)
	value, ok := p.engine.Scripts[script]
	if !ok {
		return nil, nil
	}
	if err, isErr := value.(error); isErr {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	return value, nil
}

func (p *Page) act(ctx context.Context, kind, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.engine.mu.Lock()
	missing := p.engine.MissingSelectors[selector]
	p.engine.mu.Unlock()
	if missing {
		return fmt.Errorf("%s failed: element %q not found", kind, selector)
	}

	p.engine.record(Action{Kind: kind, Selector: selector, Value: value})
	return nil
}

// Fill implements browser.Page.
func (p *Page) Fill(ctx context.Context, selector, value string) error {
	return p.act(ctx, "fill", selector, value)
}

// Press implements browser.Page.
func (p *Page) Press(ctx context.Context, selector, key string) error {
	return p.act(ctx, "press", selector, key)
}

// Click implements browser.Page.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.act(ctx, "click", selector, "")
}

// Wait implements browser.Page. It records the wait without sleeping.
func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.engine.record(Action{Kind: "wait", Value: d.String()})
	return nil
}

// Screenshot implements browser.Page by writing a placeholder PNG header.
func (p *Page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.engine.record(Action{Kind: "screenshot", Selector: path, Value: fmt.Sprint(fullPage)})
	return os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0600)
}

// Content implements browser.Page.
func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	if html, ok := p.engine.Pages[p.url]; ok {
		return html, nil
	}
	return BlankPage, nil
}
