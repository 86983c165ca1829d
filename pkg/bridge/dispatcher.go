package bridge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/entrhq/slack-bridge/pkg/browser"
	"github.com/entrhq/slack-bridge/pkg/config"
	"github.com/entrhq/slack-bridge/pkg/logging"
	"github.com/entrhq/slack-bridge/pkg/session"
	"github.com/entrhq/slack-bridge/pkg/snapshot"
)

// Function names accepted by --function.
const (
	FunctionOpen       = "open"
	FunctionExecute    = "execute"
	FunctionInteract   = "interact"
	FunctionSnapshot   = "snapshot"
	FunctionScreenshot = "screenshot"
	FunctionClose      = "close"
	FunctionList       = "list"
)

// Functions lists every supported function in help order.
var Functions = []string{
	FunctionOpen,
	FunctionExecute,
	FunctionInteract,
	FunctionSnapshot,
	FunctionScreenshot,
	FunctionClose,
	FunctionList,
}

// Interact actions.
const (
	ActionWait  = "wait"
	ActionFill  = "fill"
	ActionPress = "press"
	ActionClick = "click"
	ActionGoto  = "goto"
)

const (
	// DefaultWait is used by the wait action when no ms is given
	DefaultWait = 1000 * time.Millisecond

	// DefaultPressTarget receives key presses that name no selector
	DefaultPressTarget = "body"
)

// Request is one invocation.
type Request struct {
	Function string
	Session  string
	Input    *Input
}

// Outcome is the result of a dispatched request.
type Outcome struct {
	// Result is the JSON-serializable result record
	Result interface{}

	// Detached is the still-running browser of a headed open, owned by the
	// caller. Nil otherwise.
	Detached browser.Browser
}

// Dispatcher maps a request to one operation.
type Dispatcher struct {
	runtime *Runtime
	store   *session.Store
	cfg     *config.Config
	log     *logging.Logger
	now     func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(runtime *Runtime, store *session.Store, cfg *config.Config, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		runtime: runtime,
		store:   store,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Dispatch validates req and runs the operation it names.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Outcome, error) {
	if req.Function == "" {
		return nil, NewUsageError("missing --function (one of %v)", Functions)
	}
	in := req.Input
	if in == nil {
		in = &Input{}
	}

	id := req.Session
	if id == "" {
		id = session.DefaultID
	}
	if id == session.NewKeyword && req.Function != FunctionOpen {
		return nil, NewUsageError("--session %s is only valid with --function %s", session.NewKeyword, FunctionOpen)
	}

	d.log.Infof("dispatching %s for session %s", req.Function, id)

	switch req.Function {
	case FunctionOpen:
		return d.open(ctx, id, in)
	case FunctionExecute:
		return d.execute(ctx, id, in)
	case FunctionInteract:
		return d.interact(ctx, id, in)
	case FunctionSnapshot:
		return d.takeSnapshot(ctx, id, in)
	case FunctionScreenshot:
		return d.screenshot(ctx, id, in)
	case FunctionClose:
		return d.close(id)
	case FunctionList:
		return d.list(in)
	default:
		return nil, unknownFunctionError(req.Function)
	}
}

func (d *Dispatcher) open(ctx context.Context, requested string, in *Input) (*Outcome, error) {
	id := session.ResolveID(requested)
	if err := session.ValidateID(id); err != nil {
		return nil, wrapUsage(err)
	}
	if _, err := d.store.Ensure(id); err != nil {
		return nil, err
	}

	detached, err := d.runtime.WithSession(ctx, id, SessionOptions{
		URL:    in.URL,
		Headed: in.Headed,
		Detach: true,
	}, func(context.Context, *Session) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: OpenResult{SessionID: id}, Detached: detached}, nil
}

func (d *Dispatcher) execute(ctx context.Context, id string, in *Input) (*Outcome, error) {
	script := in.source()
	if script == "" {
		return nil, validationError("execute requires a 'code' or 'script' field")
	}

	var value interface{}
	_, err := d.runtime.WithSession(ctx, id, d.sessionOptions(in), func(ctx context.Context, s *Session) error {
		var err error
		value, err = s.Page.Evaluate(ctx, script)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: ExecuteResult{Result: jsonSafe(value)}}, nil
}

// interactStep is a validated interact action ready to run against a page.
type interactStep func(ctx context.Context, s *Session) error

func (d *Dispatcher) interact(ctx context.Context, id string, in *Input) (*Outcome, error) {
	step, err := d.planInteract(id, in)
	if err != nil {
		return nil, err
	}

	if _, err := d.runtime.WithSession(ctx, id, d.sessionOptions(in), step); err != nil {
		return nil, err
	}
	return &Outcome{Result: InteractResult{OK: true, Action: in.Action}}, nil
}

// planInteract validates the action's fields and resolves any reference
// token before a browser is launched.
func (d *Dispatcher) planInteract(id string, in *Input) (interactStep, error) {
	switch in.Action {
	case "":
		return nil, validationError("interact requires an 'action' field")

	case ActionWait:
		wait := DefaultWait
		if in.Ms != nil {
			if *in.Ms < 0 {
				return nil, validationError("wait requires a non-negative 'ms' field, got %g", *in.Ms)
			}
			wait = time.Duration(*in.Ms * float64(time.Millisecond))
		}
		return func(ctx context.Context, s *Session) error {
			return s.Page.Wait(ctx, wait)
		}, nil

	case ActionFill:
		if in.Selector == "" {
			return nil, validationError("fill requires a 'selector' field")
		}
		return func(ctx context.Context, s *Session) error {
			return s.Page.Fill(ctx, in.Selector, in.Value)
		}, nil

	case ActionPress:
		if in.Key == "" {
			return nil, validationError("press requires a 'key' field")
		}
		target := in.Selector
		if target == "" {
			target = DefaultPressTarget
		}
		return func(ctx context.Context, s *Session) error {
			return s.Page.Press(ctx, target, in.Key)
		}, nil

	case ActionClick:
		target := in.Selector
		if target == "" {
			if in.Ref == "" {
				return nil, validationError("click requires a 'selector' or 'ref' field")
			}
			if err := session.ValidateID(id); err != nil {
				return nil, wrapUsage(err)
			}
			locator, err := d.store.Resolve(id, in.Ref)
			if err != nil {
				return nil, err
			}
			d.log.Debugf("resolved %s to %s", in.Ref, locator)
			target = locator
		}
		return func(ctx context.Context, s *Session) error {
			return s.Page.Click(ctx, target)
		}, nil

	case ActionGoto:
		return func(ctx context.Context, s *Session) error {
			return s.Page.Goto(ctx, s.URL, d.cfg.NavigationTimeout)
		}, nil

	default:
		return nil, unknownActionError(in.Action)
	}
}

func (d *Dispatcher) takeSnapshot(ctx context.Context, id string, in *Input) (*Outcome, error) {
	var result *snapshot.Result
	_, err := d.runtime.WithSession(ctx, id, d.sessionOptions(in), func(ctx context.Context, s *Session) error {
		content, err := s.Page.Content(ctx)
		if err != nil {
			return err
		}
		result, err = snapshot.Take(content)
		if err != nil {
			return err
		}
		return d.store.SaveRefs(s.ID, result.Refs)
	})
	if err != nil {
		return nil, err
	}

	d.log.Infof("snapshot of session %s found %d elements", id, result.Count())
	return &Outcome{Result: SnapshotResult{Elements: result.Elements, Count: result.Count()}}, nil
}

func (d *Dispatcher) screenshot(ctx context.Context, id string, in *Input) (*Outcome, error) {
	path := filepath.Join(d.cfg.ScreenshotDir, fmt.Sprintf("slack-screenshot-%d.png", d.now().UnixMilli()))

	_, err := d.runtime.WithSession(ctx, id, d.sessionOptions(in), func(ctx context.Context, s *Session) error {
		return s.Page.Screenshot(ctx, path, in.FullPage)
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: ScreenshotResult{Screenshot: path}}, nil
}

func (d *Dispatcher) close(id string) (*Outcome, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, wrapUsage(err)
	}
	if err := d.store.Destroy(id); err != nil {
		return nil, err
	}
	return &Outcome{Result: CloseResult{OK: true, Closed: id}}, nil
}

func (d *Dispatcher) list(in *Input) (*Outcome, error) {
	infos, err := d.store.List(in.Pattern)
	if err != nil {
		if errors.Is(err, session.ErrInvalidPattern) {
			return nil, &kindError{kind: ErrValidation, msg: err.Error(), err: err}
		}
		return nil, err
	}
	if infos == nil {
		infos = []session.Info{}
	}
	return &Outcome{Result: ListResult{Sessions: infos, Count: len(infos)}}, nil
}

// sessionOptions builds options for operations that always close the
// browser, whatever the headed flag says.
func (d *Dispatcher) sessionOptions(in *Input) SessionOptions {
	return SessionOptions{URL: in.URL, Headed: in.Headed}
}
