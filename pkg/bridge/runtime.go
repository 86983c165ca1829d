package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/slack-bridge/pkg/browser"
	"github.com/entrhq/slack-bridge/pkg/config"
	"github.com/entrhq/slack-bridge/pkg/logging"
	"github.com/entrhq/slack-bridge/pkg/session"
)

// Session is the live state an operation body runs against.
type Session struct {
	ID   string
	Page browser.Page
	// URL is where the runtime navigated before running the body
	URL string
}

// SessionOptions controls how a session is acquired.
type SessionOptions struct {
	// URL overrides the configured default navigation target
	URL    string
	Headed bool
	// Detach leaves a headed browser running after a successful body
	Detach bool
}

// Runtime binds a browser to a session's persisted state for the duration
// of one operation.
type Runtime struct {
	store  *session.Store
	engine browser.Engine
	cfg    *config.Config
	log    *logging.Logger
}

// NewRuntime creates a runtime.
func NewRuntime(store *session.Store, engine browser.Engine, cfg *config.Config, log *logging.Logger) *Runtime {
	return &Runtime{
		store:  store,
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
}

// WithSession launches a browser seeded with id's storage state (or a fresh
// context), navigates, runs body, and persists the resulting storage state.
//
// The browser is closed on every path except a successful headed, detached
// run, in which case it is returned still running and the caller owns it.
// Storage state is persisted only when body succeeds.
func (r *Runtime) WithSession(ctx context.Context, id string, opts SessionOptions, body func(context.Context, *Session) error) (detached browser.Browser, err error) {
	if err := session.ValidateID(id); err != nil {
		return nil, wrapUsage(err)
	}

	state, found, err := r.store.ReadStorageState(id)
	if err != nil {
		return nil, err
	}
	if found {
		r.log.Debugf("resuming session %s from persisted state", id)
	} else {
		r.log.Debugf("starting session %s with a fresh context", id)
	}

	b, err := r.engine.Launch(ctx, browser.LaunchOptionsFor(r.cfg, opts.Headed))
	if err != nil {
		return nil, err
	}

	keep := false
	defer func() {
		if keep {
			return
		}
		if cerr := b.Close(); cerr != nil {
			r.log.Warnf("failed to close browser for session %s: %v", id, cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	bctx, err := b.NewContext(ctx, browser.ContextOptions{StorageState: state})
	if err != nil {
		return nil, err
	}

	page, err := bctx.NewPage(ctx)
	if err != nil {
		return nil, err
	}

	target := opts.URL
	if target == "" {
		target = r.cfg.DefaultURL
	}
	if err := page.Goto(ctx, target, r.cfg.NavigationTimeout); err != nil {
		if errors.Is(err, browser.ErrNavigationTimeout) {
			r.log.Warnf("navigation to %s timed out for session %s", target, id)
		}
		return nil, err
	}

	if err := body(ctx, &Session{ID: id, Page: page, URL: target}); err != nil {
		return nil, err
	}

	blob, err := bctx.StorageState(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.store.WriteStorageState(id, blob); err != nil {
		return nil, fmt.Errorf("failed to persist session %s: %w", id, err)
	}

	if opts.Headed && opts.Detach {
		keep = true
		r.log.Infof("leaving headed browser running for session %s", id)
		return b, nil
	}
	return nil, nil
}
