package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/entrhq/slack-bridge/pkg/logging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultActionTimeout bounds element lookups and input actions on the rod
// engine, matching Playwright's default action timeout.
const DefaultActionTimeout = 30 * time.Second

// RodEngine drives Chromium over the DevTools protocol with go-rod.
type RodEngine struct {
	bin string
	log *logging.Logger
}

// NewRodEngine creates a rod-backed engine. bin is an optional Chromium
// binary; when empty rod locates or downloads one.
func NewRodEngine(bin string, log *logging.Logger) *RodEngine {
	return &RodEngine{bin: bin, log: log}
}

// Launch starts a Chromium process and connects to it.
func (e *RodEngine) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	l := launcher.New().Context(ctx).Headless(!opts.Headed).Logger(e.log.Writer())
	if e.bin != "" {
		l = l.Bin(e.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	e.log.Debugf("launched chromium via rod (headless=%t)", !opts.Headed)

	return &rodBrowser{
		launcher: l,
		browser:  b,
		viewport: viewportOrDefault(opts.Viewport),
		log:      e.log,
	}, nil
}

type rodBrowser struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	viewport  Viewport
	log       *logging.Logger
	closeOnce sync.Once
	closeErr  error
}

func (b *rodBrowser) NewContext(ctx context.Context, opts ContextOptions) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state, err := ParseStorageState(opts.StorageState)
	if err != nil {
		return nil, err
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	if len(state.Cookies) > 0 {
		if err := incognito.SetCookies(cookieParams(state.Cookies)); err != nil {
			return nil, fmt.Errorf("failed to restore cookies: %w", err)
		}
	}

	return &rodContext{
		browser:  incognito,
		viewport: b.viewport,
		state:    state,
		log:      b.log,
	}, nil
}

// Wait blocks until the browser process exits.
func (b *rodBrowser) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.launcher.Cleanup()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *rodBrowser) Close() error {
	b.closeOnce.Do(func() {
		if err := b.browser.Close(); err != nil {
			b.closeErr = fmt.Errorf("failed to close browser: %w", err)
			b.launcher.Kill()
		}
		b.launcher.Cleanup()
		b.log.Debugf("closed rod browser")
	})
	return b.closeErr
}

type rodContext struct {
	browser  *rod.Browser
	viewport Viewport
	state    *StorageState
	log      *logging.Logger

	mu    sync.Mutex
	pages []*rodPage
}

func (c *rodContext) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.viewport.Width,
		Height:            c.viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if len(c.state.Origins) > 0 {
		script, err := seedLocalStorageScript(c.state.Origins)
		if err != nil {
			return nil, err
		}
		if _, err := page.EvalOnNewDocument(script); err != nil {
			return nil, fmt.Errorf("failed to restore local storage: %w", err)
		}
	}

	p := &rodPage{page: page}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p, nil
}

// StorageState exports cookies of the whole context and the local storage of
// every open page's origin, on top of the origins it was seeded with.
func (c *rodContext) StorageState(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cookies, err := c.browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("failed to export cookies: %w", err)
	}

	out := &StorageState{
		Cookies: storageCookies(cookies),
		Origins: append([]StorageOrigin(nil), c.state.Origins...),
	}

	c.mu.Lock()
	pages := append([]*rodPage(nil), c.pages...)
	c.mu.Unlock()

	for _, p := range pages {
		origin, entries, err := p.localStorage(ctx)
		if err != nil {
			c.log.Warnf("skipping local storage export: %v", err)
			continue
		}
		if origin == "" {
			continue
		}
		out.SetOrigin(origin, entries)
	}

	return out.Marshal()
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Goto(ctx context.Context, target string, timeout time.Duration) error {
	tp := p.page.Context(ctx).Timeout(timeout)
	defer tp.CancelTimeout()

	wait := tp.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	navErr := tp.Navigate(target)
	if navErr == nil {
		wait()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if errors.Is(tp.GetContext().Err(), context.DeadlineExceeded) {
		return &NavigationTimeoutError{URL: target, Timeout: timeout, Err: context.DeadlineExceeded}
	}
	if navErr != nil {
		return fmt.Errorf("navigation failed: %w", navErr)
	}
	return nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

var functionLike = regexp.MustCompile(`^\s*(async\s+)?(function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`)

// isFunctionLike reports whether script is a function expression that
// should be invoked rather than evaluated as-is.
func isFunctionLike(script string) bool {
	return functionLike.MatchString(script)
}

func (p *rodPage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	expression := script
	if isFunctionLike(script) {
		expression = "(" + script + ")()"
	}

	res, err := proto.RuntimeEvaluate{
		Expression:    expression,
		ReturnByValue: true,
		AwaitPromise:  true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	if res.ExceptionDetails != nil {
		msg := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil && res.ExceptionDetails.Exception.Description != "" {
			msg = res.ExceptionDetails.Exception.Description
		}
		return nil, fmt.Errorf("JavaScript execution failed: %s", msg)
	}
	if res.Result == nil {
		return nil, nil
	}
	return res.Result.Value.Val(), nil
}

func (p *rodPage) element(ctx context.Context, selector string) (*rod.Element, func(), error) {
	tp := p.page.Context(ctx).Timeout(DefaultActionTimeout)
	el, err := tp.Element(selector)
	if err != nil {
		tp.CancelTimeout()
		return nil, nil, fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el, func() { tp.CancelTimeout() }, nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	el, done, err := p.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	defer done()

	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	if value == "" {
		err = el.Type(input.Backspace)
	} else {
		err = el.Input(value)
	}
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *rodPage) Press(ctx context.Context, selector, key string) error {
	mods, k, err := parseKeyCombo(key)
	if err != nil {
		return fmt.Errorf("press failed: %w", err)
	}

	el, done, err := p.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("press failed: %w", err)
	}
	defer done()

	actions, err := el.KeyActions()
	if err != nil {
		return fmt.Errorf("press failed: %w", err)
	}
	if err := actions.Press(mods...).Type(k).Do(); err != nil {
		return fmt.Errorf("press failed: %w", err)
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, done, err := p.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	defer done()

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *rodPage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *rodPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	data, err := p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

const localStorageDump = `(() => {
	const items = [];
	for (let i = 0; i < localStorage.length; i++) {
		const name = localStorage.key(i);
		items.push({name, value: localStorage.getItem(name)});
	}
	return {origin: location.origin, items};
})()`

// localStorage reads the page origin and its local storage. Opaque origins
// such as about:blank yield an empty origin.
func (p *rodPage) localStorage(ctx context.Context) (string, []StorageEntry, error) {
	raw, err := p.Evaluate(ctx, localStorageDump)
	if err != nil {
		return "", nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode local storage: %w", err)
	}
	var dump struct {
		Origin string         `json:"origin"`
		Items  []StorageEntry `json:"items"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		return "", nil, fmt.Errorf("failed to decode local storage: %w", err)
	}

	u, err := url.Parse(dump.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, nil
	}
	if dump.Items == nil {
		dump.Items = []StorageEntry{}
	}
	return dump.Origin, dump.Items, nil
}

// seedLocalStorageScript builds a script that restores the saved items of
// whichever origin the new document belongs to.
func seedLocalStorageScript(origins []StorageOrigin) (string, error) {
	byOrigin := make(map[string][]StorageEntry, len(origins))
	for _, o := range origins {
		byOrigin[o.Origin] = o.LocalStorage
	}
	data, err := json.Marshal(byOrigin)
	if err != nil {
		return "", fmt.Errorf("failed to encode local storage: %w", err)
	}
	return fmt.Sprintf(`(() => {
	const saved = %s[location.origin];
	if (!saved) return;
	try {
		for (const item of saved) localStorage.setItem(item.name, item.value);
	} catch (e) {}
})()`, data), nil
}

func cookieParams(cookies []StorageCookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, param)
	}
	return params
}

func storageCookies(cookies []*proto.NetworkCookie) []StorageCookie {
	out := make([]StorageCookie, 0, len(cookies))
	for _, c := range cookies {
		expires := float64(c.Expires)
		if c.Session {
			expires = -1
		}
		sameSite := string(c.SameSite)
		if sameSite == "" {
			sameSite = string(proto.NetworkCookieSameSiteLax)
		}
		out = append(out, StorageCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: sameSite,
		})
	}
	return out
}
