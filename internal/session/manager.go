package session

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"psmux/internal/errs"
	"psmux/internal/layout"
	"psmux/internal/options"
)

// DefaultCols/DefaultRows are used when a caller supplies a non-positive
// size at session creation.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// PaneCloser is called once per removed pane so the owner of the pane's
// PTY/Screen resources (internal/ptyio) can release OS handles. Manager
// never imports ptyio directly to avoid a layering cycle; the server
// wires this in at startup.
type PaneCloser func(*Pane)

// Manager owns every session on the server and allocates the shared,
// monotonically increasing $session/@window/%pane id space (spec §3).
//
// Lock ordering (spec §5): Manager.mu is always acquired before any
// per-pane Screen lock; code that needs both must acquire Manager.mu
// first, and when touching multiple panes must acquire them in ascending
// pane-id order to avoid deadlock — mirrors the teacher's SessionManager
// discipline (internal/tmux/session_manager.go: a single mu covering the
// whole session/window/pane map, "Locked" suffix meaning "caller holds mu").
type Manager struct {
	mu sync.RWMutex

	sessions map[string]*Session
	panes    map[int]*Pane

	nextSessionID int
	nextWindowID  int
	nextPaneID    int

	now           func() time.Time
	idleThreshold time.Duration

	onPaneClosed PaneCloser

	// ServerOpts is the server-scoped option set (set-option -s), the
	// bottom of every LookupChain walk before the compiled-in default.
	ServerOpts *options.Set
}

// NewManager creates an empty Manager. onClose, if non-nil, is invoked
// (outside any lock) for every pane removed by RemoveSession/RemoveWindow/
// RemovePane so the server can release the pane's PTY/Screen.
func NewManager(onClose PaneCloser) *Manager {
	return &Manager{
		sessions:      map[string]*Session{},
		panes:         map[int]*Pane{},
		now:           time.Now,
		idleThreshold: 5 * time.Second,
		onPaneClosed:  onClose,
		ServerOpts:    options.NewSet(),
	}
}

// Close tears down every session, invoking onPaneClosed for each pane.
func (m *Manager) Close() {
	m.mu.Lock()
	panes := make([]*Pane, 0, len(m.panes))
	for _, p := range m.panes {
		panes = append(panes, p)
	}
	m.sessions = map[string]*Session{}
	m.panes = map[int]*Pane{}
	m.mu.Unlock()

	for _, p := range panes {
		m.closePane(p)
	}
}

func (m *Manager) closePane(p *Pane) {
	if p == nil || m.onPaneClosed == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ERROR-SESSION] panic closing pane", "pane", p.IDString(), "recover", r)
		}
	}()
	m.onPaneClosed(p)
}

// CreateSession creates a session with one window and one pane, per
// new-session's default behavior.
func (m *Manager) CreateSession(name, windowName string, cols, rows int) (*Session, *Pane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = m.nextAutoSessionNameLocked()
	}
	if _, exists := m.sessions[name]; exists {
		return nil, nil, fmt.Errorf("session %s: %w", name, errs.ErrDuplicate)
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if strings.TrimSpace(windowName) == "" {
		windowName = "0"
	}

	now := m.now()
	sess := &Session{
		ID:           m.nextSessionID,
		Name:         name,
		CreatedAt:    now,
		LastActivity: now,
		Env:          map[string]string{},
		Hooks:        map[string][]string{},
		WaitChannels: map[string]chan struct{}{},
		Opts:         options.NewSet(),
	}
	m.nextSessionID++

	win := &Window{
		ID:      m.nextWindowID,
		Name:    windowName,
		Session: sess,
		Opts:    options.NewSet(),
	}
	m.nextWindowID++

	pane := &Pane{
		ID:     m.nextPaneID,
		Window: win,
		Width:  cols,
		Height: rows,
		Env:    map[string]string{},
		Opts:   options.NewSet(),
	}
	m.nextPaneID++

	win.Panes = []*Pane{pane}
	win.Layout = layout.NewLeaf(pane.ID)
	layout.Recompute(win.Layout, 0, 0, cols, rows)
	win.ActivePaneID = pane.ID

	sess.Windows = []*Window{win}
	sess.ActiveWindowID = win.ID

	m.sessions[sess.Name] = sess
	m.panes[pane.ID] = pane
	return sess, pane, nil
}

func (m *Manager) nextAutoSessionNameLocked() string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%d", i)
		if _, exists := m.sessions[name]; !exists {
			return name
		}
	}
}

// RenameSession changes a session's name.
func (m *Manager) RenameSession(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("new session name cannot be empty: %w", errs.ErrParse)
	}
	if oldName == newName {
		return nil
	}
	sess, ok := m.sessions[oldName]
	if !ok {
		return fmt.Errorf("session %s: %w", oldName, errs.ErrNotFound)
	}
	if _, exists := m.sessions[newName]; exists {
		return fmt.Errorf("session %s: %w", newName, errs.ErrDuplicate)
	}
	delete(m.sessions, oldName)
	sess.Name = newName
	m.sessions[newName] = sess
	return nil
}

// RemoveSession deletes a session and hands each pane it owned to
// onPaneClosed so their PTY handles can be released.
func (m *Manager) RemoveSession(name string) error {
	m.mu.Lock()
	sess, ok := m.sessions[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", name, errs.ErrNotFound)
	}
	var panes []*Pane
	for _, w := range sess.Windows {
		for _, p := range w.Panes {
			panes = append(panes, p)
			delete(m.panes, p.ID)
		}
	}
	delete(m.sessions, name)
	m.mu.Unlock()

	for _, p := range panes {
		m.closePane(p)
	}
	return nil
}

// HasSession reports whether a session by that name exists.
func (m *Manager) HasSession(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[name]
	return ok
}

// GetSession returns the live session pointer. Callers needing to mutate
// window/pane state must hold this under Manager's own locked methods;
// GetSession itself is read-locked only for the map lookup.
func (m *Manager) GetSession(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[name]
	return s, ok
}

// GetPane returns the live pane pointer by id.
func (m *Manager) GetPane(id int) (*Pane, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.panes[id]
	return p, ok
}

// FindSessionLocked looks up a session by name without taking Manager.mu
// itself. Callers must already hold Lock or RLock (dump-state's read
// spans the lookup plus the window/pane traversal that follows it, so it
// takes RLock once itself rather than through GetSession).
func (m *Manager) FindSessionLocked(name string) (*Session, bool) {
	s, ok := m.sessions[name]
	return s, ok
}

// ListSessions returns all sessions sorted by id.
func (m *Manager) ListSessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lock/Unlock expose Manager's mutex to command handlers that must hold it
// across a multi-step mutation spanning session/window/pane/layout state
// (spec §5's single session lock). Always acquired before any pane's
// Screen lock, never after.
func (m *Manager) Lock()    { m.mu.Lock() }
func (m *Manager) Unlock()  { m.mu.Unlock() }
func (m *Manager) RLock()   { m.mu.RLock() }
func (m *Manager) RUnlock() { m.mu.RUnlock() }

// registerPane/unregisterPane are used by windows.go/panes.go under an
// already-held Manager.mu.
func (m *Manager) registerPaneLocked(p *Pane) { m.panes[p.ID] = p }
func (m *Manager) unregisterPaneLocked(id int) { delete(m.panes, id) }

func (m *Manager) allocPaneIDLocked() int {
	id := m.nextPaneID
	m.nextPaneID++
	return id
}

func (m *Manager) allocWindowIDLocked() int {
	id := m.nextWindowID
	m.nextWindowID++
	return id
}
