// Package session owns the Session/Window/Pane arena (spec §3, §4.D): id
// allocation with sigils ($session, @window, %pane), last-window/last-pane
// tracking, zoom save-state, activity flags, named paste buffers, the
// per-session hook map consumed by internal/hooks and the wait-for channel
// map used by internal/command.
//
// Generalizes the teacher's one-window-per-session SessionManager
// (internal/tmux/session_manager*.go in the retrieved reference, whose
// AddWindow/WindowIndexInSession were deliberately removed by a "1-window
// model" refactor) back to full multi-window sessions, since spec §4.D
// requires new-window/select-window/last-window semantics the teacher's
// current model dropped.
package session

import (
	"fmt"
	"maps"
	"time"

	"psmux/internal/errs"
	"psmux/internal/layout"
	"psmux/internal/options"
)

// Pane is one pseudo-console-backed rectangle within a window's layout
// tree. Screen and the PTY handle are owned elsewhere (internal/screen,
// internal/ptyio); Pane holds only the identity and bookkeeping the
// session/window/layout layer needs.
type Pane struct {
	ID       int
	Index    int
	Window   *Window
	Title    string
	Dead     bool
	RemainOnExit bool
	WorkingDir string
	Width, Height int
	Env      map[string]string

	// Screen, PTYHandle are untyped slots that session never dereferences.
	// Nothing in this tree sets them: the server keeps each pane's
	// *ptyio.Pane (and through it the screen) in its own map keyed by pane id.
	Screen    interface{}
	PTYHandle interface{}

	// CopyMode holds a *copymode.State while the pane is in copy mode,
	// nil otherwise. Carried as interface{} for the same layering reason
	// as Screen/PTYHandle: session must not import internal/copymode.
	CopyMode interface{}

	PipeTarget string

	// Opts is this pane's local option overrides (set-option -p). Never
	// nil after the pane is constructed by Manager.
	Opts *options.Set
}

func (p *Pane) IDString() string { return fmt.Sprintf("%%%d", p.ID) }

// Window holds an ordered set of panes arranged by a layout tree.
type Window struct {
	ID      int
	Index   int
	Name    string
	NameIsAutomatic bool
	Session *Session

	Layout *layout.Node

	ActivePaneID int
	LastPaneID   int

	// ZoomedFrom is the saved full tree, set while a pane is zoomed; nil
	// otherwise. Zoom is single-level (spec §4.C): zooming again while
	// already zoomed is a no-op.
	ZoomedFrom *layout.Node

	Panes []*Pane

	Activity bool
	Marked   bool

	// CurrentLayoutPreset tracks the last named preset applied by
	// select-layout/next-layout/previous-layout, "" once a manual
	// layout.Parse string has been applied instead. Drives
	// next-layout/previous-layout's cycling position.
	CurrentLayoutPreset string

	// Opts is this window's local option overrides (set-option -w).
	Opts *options.Set
}

func (w *Window) IDString() string { return fmt.Sprintf("@%d", w.ID) }

// PasteBuffer is one named entry in a session's paste-buffer list.
type PasteBuffer struct {
	Name string
	Data []byte
}

// Session is the top-level container: a named, uniquely-identified set of
// windows plus the per-session state that does not belong to any one
// window (buffers, hooks, wait-for channels, environment).
type Session struct {
	ID   int
	Name string

	CreatedAt    time.Time
	LastActivity time.Time
	Idle         bool

	Windows        []*Window
	ActiveWindowID int
	LastWindowID   int

	Env     map[string]string
	Buffers []*PasteBuffer

	Hooks map[string][]string

	// WaitChannels backs wait-for: each named channel is buffered(1);
	// it is unlocked/signaled while it holds a token and locked while
	// empty (-L takes the token, -U/-S put it back).
	WaitChannels map[string]chan struct{}

	// Opts is this session's local option overrides (set-option -g).
	Opts *options.Set
}

func (s *Session) IDString() string { return fmt.Sprintf("$%d", s.ID) }

func copyEnv(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	maps.Copy(out, in)
	return out
}

// FindWindow returns the window with the given id, or nil.
func (s *Session) FindWindow(id int) *Window {
	for _, w := range s.Windows {
		if w != nil && w.ID == id {
			return w
		}
	}
	return nil
}

// FindPane returns the pane with the given id within this window, or nil.
func (w *Window) FindPane(id int) *Pane {
	for _, p := range w.Panes {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// ActiveWindow returns the session's current window, or nil if stale.
func (s *Session) ActiveWindow() *Window {
	return s.FindWindow(s.ActiveWindowID)
}

// ActivePane returns the window's current pane, or nil if stale.
func (w *Window) ActivePane() *Pane {
	return w.FindPane(w.ActivePaneID)
}

var errNotFound = errs.ErrNotFound
