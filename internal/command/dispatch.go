package command

import (
	"errors"
	"log/slog"
	"sync"

	"psmux/internal/errs"
	"psmux/internal/format"
	"psmux/internal/hooks"
	"psmux/internal/keytable"
	"psmux/internal/layout"
	"psmux/internal/ptyio"
	"psmux/internal/session"
)

// PTYProvider resolves a session.Pane's host PTY handle. internal/server
// wires this to its own pane registry; command never imports ptyio
// directly into session.Pane (it stays an interface{} slot there), so it
// asks the server-supplied provider instead of doing the type assertion
// against an unexported field itself.
type PTYProvider func(paneID int) (*ptyio.Pane, bool)

// Dispatcher turns parsed Requests into session/option/layout/key-table
// mutations (spec §4.I). One Dispatcher per server; CurrentSession is
// supplied per call since it is a per-connection client attribute, not a
// dispatcher-wide one.
type Dispatcher struct {
	Manager *session.Manager
	Keys    *keytable.Registry
	PTY     PTYProvider

	waitMu sync.Mutex
}

// NewDispatcher wires a Dispatcher against an existing Manager/key
// registry. ptyProvider may be nil in contexts (tests) that never touch
// pane I/O.
func NewDispatcher(m *session.Manager, keys *keytable.Registry, pty PTYProvider) *Dispatcher {
	return &Dispatcher{Manager: m, Keys: keys, PTY: pty}
}

// Execute parses and runs one argv (already split on ;/\; by the caller
// via SplitChain). currentSession is "" when no session is yet attached
// (source-file before any session exists): commands that require a
// current session then print the spec's warning and exit 0 rather than
// failing.
func (d *Dispatcher) Execute(currentSession string, args []string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[command] panic in command handler", "args", args, "recover", r)
			res, err = fail(errorf("command panicked: %v", r))
		}
	}()
	req, err := Parse(args)
	if err != nil {
		return fail(err)
	}
	handler, ok := handlers[req.Name]
	if !ok {
		return fail(errorf("unknown command: %s: %w", req.Name, errs.ErrParse))
	}
	ctx := &execContext{d: d, currentSession: currentSession}
	res, err = handler(ctx, req)
	if err != nil {
		if errors.Is(err, errs.ErrConfigWarning) {
			return Result{Output: "warning: no active session", ExitCode: 0}, nil
		}
		if res.ExitCode == 0 {
			res.ExitCode = 1
		}
		return res, err
	}
	return res, nil
}

// execContext is the per-call environment a handler runs in.
type execContext struct {
	d              *Dispatcher
	currentSession string
}

func (c *execContext) manager() *session.Manager { return c.d.Manager }

func (c *execContext) target(raw string) (Target, error) {
	return resolveTarget(c.d.Manager, c.currentSession, raw)
}

func (c *execContext) requireTarget(req Request) (Target, error) {
	raw := req.str("-t", "")
	t, err := c.target(raw)
	if err != nil && c.currentSession == "" && raw == "" {
		return Target{}, errs.ErrConfigWarning
	}
	return t, err
}

func (c *execContext) formatContext(t Target) *format.Context {
	m := c.d.Manager
	fc := &format.Context{Manager: m, ServerOpts: m.ServerOpts}
	if t.Session != nil {
		fc.Session = t.Session
		fc.SessionOpts = t.Session.Opts
	}
	if t.Window != nil {
		fc.Window = t.Window
		fc.WindowOpts = t.Window.Opts
	}
	if t.Pane != nil {
		fc.Pane = t.Pane
		fc.PaneOpts = t.Pane.Opts
	}
	return fc
}

func (c *execContext) pty(p *session.Pane) (*ptyio.Pane, bool) {
	if c.d.PTY == nil || p == nil {
		return nil, false
	}
	return c.d.PTY(p.ID)
}

// fireHook runs every command bound to name on sess, recursing back
// through Execute for each one (spec §5: synchronous, may enqueue further
// commands).
func (c *execContext) fireHook(sess *session.Session, name string) {
	c.d.FireHook(sess, name)
}

// FireHook runs every command bound to name on sess. Exported so
// internal/server can fire hooks (pane-exited, client-attached,
// client-detached) triggered by connection-level events the dispatcher
// itself never observes, the same synchronous semantics fireHook gives
// handlers (spec §5).
func (d *Dispatcher) FireHook(sess *session.Session, name string) {
	hooks.Fire(sess, name, func(sessionName, commandLine string) {
		argv, err := splitShellWords(commandLine)
		if err != nil || len(argv) == 0 {
			return
		}
		d.Execute(sessionName, argv)
	})
}

// handlerFunc is one command's implementation.
type handlerFunc func(ctx *execContext, req Request) (Result, error)

// handlers is populated by the command_*.go files' init()s via register.
var handlers = map[string]handlerFunc{}

func register(name string, fn handlerFunc) {
	handlers[name] = fn
}

// orientationFromFlags maps split-window/join-pane's -h/-v to
// layout.Orientation (h = side-by-side panes = horizontal split producing
// a horizontal arrangement, matching layout's Orientation naming).
func orientationFromFlags(req Request) layout.Orientation {
	if req.Bools["-h"] {
		return layout.Horizontal
	}
	return layout.Vertical
}
