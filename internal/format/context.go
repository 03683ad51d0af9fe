// Package format implements the "#{...}" format-expression language (spec
// §4.F): the mini-language used by status-left/status-right,
// window-status-format, and the various *-format options to interpolate
// session/window/pane state into displayed text.
//
// This is a genuine recursive-descent parser over an AST, not a single
// regex pass: unlike a flat "#\{([^}]+)\}" scan, it tracks brace depth so
// expressions can nest arbitrarily (conditionals whose branches contain
// further #{...} expressions, arithmetic operands that are themselves
// variables, and so on).
package format

import (
	"time"

	"psmux/internal/options"
	"psmux/internal/session"
)

// Context carries the scope a format string is evaluated against. Pane is
// the narrowest scope and, when set, implies Window and Session; Window
// implies Session. All three may be nil when formatting something scoped
// above session level (e.g. a raw buffer listing).
type Context struct {
	Manager *session.Manager
	Session *session.Session
	Window  *session.Window
	Pane    *session.Pane

	ServerOpts  *options.Set
	SessionOpts *options.Set
	WindowOpts  *options.Set
	PaneOpts    *options.Set

	Now func() time.Time
}

func (c *Context) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// withPane returns a copy of c scoped to a different pane (and its owning
// window/session), used by the #{P:...} loop to give each iteration its
// own independent context rather than mutating a shared one.
func (c *Context) withPane(p *session.Pane) *Context {
	cp := *c
	cp.Pane = p
	if p != nil {
		cp.Window = p.Window
	}
	return &cp
}

func (c *Context) withWindow(w *session.Window) *Context {
	cp := *c
	cp.Window = w
	cp.Pane = nil
	if w != nil {
		cp.Pane = w.ActivePane()
	}
	return &cp
}

func (c *Context) withSession(s *session.Session) *Context {
	cp := *c
	cp.Session = s
	cp.Window = nil
	cp.Pane = nil
	if s != nil {
		cp.Window = s.ActiveWindow()
		if cp.Window != nil {
			cp.Pane = cp.Window.ActivePane()
		}
	}
	return &cp
}
