package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/entrhq/slack-bridge/pkg/config"
	"github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationTimeoutError(t *testing.T) {
	cause := errors.New("Timeout 30000ms exceeded")
	err := fmt.Errorf("open failed: %w", &NavigationTimeoutError{
		URL:     "https://app.slack.com",
		Timeout: 30 * time.Second,
		Err:     cause,
	})

	assert.True(t, errors.Is(err, ErrNavigationTimeout))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "navigation to https://app.slack.com timed out after 30s")

	var navErr *NavigationTimeoutError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, "https://app.slack.com", navErr.URL)
}

func TestIsFunctionLike(t *testing.T) {
	tests := []struct {
		script string
		want   bool
	}{
		{"() => document.title", true},
		{"async () => { return 1 }", true},
		{"(a, b) => a + b", true},
		{"el => el.textContent", true},
		{"function () { return 1 }", true},
		{"async function run() {}", true},
		{"document.title", false},
		{"1 + 1", false},
		{"functionName()", false},
		{"(document.title)", false},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			assert.Equal(t, tt.want, isFunctionLike(tt.script))
		})
	}
}

func TestParseKeyCombo(t *testing.T) {
	tests := []struct {
		combo    string
		wantMods []input.Key
		wantKey  input.Key
		wantErr  bool
	}{
		{combo: "Enter", wantKey: input.Enter},
		{combo: "a", wantKey: input.Key('a')},
		{combo: "Shift+Enter", wantMods: []input.Key{input.ShiftLeft}, wantKey: input.Enter},
		{combo: "Control+Shift+k", wantMods: []input.Key{input.ControlLeft, input.ShiftLeft}, wantKey: input.Key('k')},
		{combo: "+", wantKey: input.Key('+')},
		{combo: "Control++", wantMods: []input.Key{input.ControlLeft}, wantKey: input.Key('+')},
		{combo: "", wantErr: true},
		{combo: "Hyper+a", wantErr: true},
		{combo: "NotAKey", wantErr: true},
		{combo: "é", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			mods, key, err := parseKeyCombo(tt.combo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMods, mods)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}

func TestViewportOrDefault(t *testing.T) {
	assert.Equal(t, Viewport{Width: 1280, Height: 720}, viewportOrDefault(nil))
	assert.Equal(t, Viewport{Width: 1280, Height: 720}, viewportOrDefault(&Viewport{Width: 0, Height: 10}))
	assert.Equal(t, Viewport{Width: 800, Height: 600}, viewportOrDefault(&Viewport{Width: 800, Height: 600}))
}

func TestNew_SelectsEngine(t *testing.T) {
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)

	engine, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &PlaywrightEngine{}, engine)

	cfg.Engine = config.EngineRod
	cfg.BrowserPath = "/usr/bin/chromium"
	engine, err = New(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &RodEngine{}, engine)
	assert.Equal(t, "/usr/bin/chromium", engine.(*RodEngine).bin)

	cfg.Engine = "webkit"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestLaunchOptionsFor(t *testing.T) {
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)
	opts := LaunchOptionsFor(cfg, true)
	assert.True(t, opts.Headed)
	assert.Equal(t, &Viewport{Width: 1280, Height: 720}, opts.Viewport)
}
