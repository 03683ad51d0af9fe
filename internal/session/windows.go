package session

import (
	"fmt"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/layout"
	"psmux/internal/options"
)

// NewWindow creates a window with a single pane inside session, inserted
// at position idx (0-based slice position; callers translate from a
// base-index-biased user index before calling). idx < 0 or idx >
// len(Windows) appends at the end. Selecting it follows new-window's
// default of making it current.
func (m *Manager) NewWindow(sessionName, name, workingDir string, idx, cols, rows int) (*Window, *Pane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionName]
	if !ok {
		return nil, nil, fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}

	win := &Window{ID: m.allocWindowIDLocked(), Session: sess, Opts: options.NewSet()}
	autoName := strings.TrimSpace(name) == ""
	if autoName {
		name = fmt.Sprintf("%d", win.ID)
	}
	win.Name = name
	win.NameIsAutomatic = autoName

	pane := &Pane{ID: m.allocPaneIDLocked(), Window: win, Width: cols, Height: rows, Env: map[string]string{}, WorkingDir: workingDir, Opts: options.NewSet()}
	win.Panes = []*Pane{pane}
	win.Layout = layout.NewLeaf(pane.ID)
	layout.Recompute(win.Layout, 0, 0, cols, rows)
	win.ActivePaneID = pane.ID

	if idx < 0 || idx > len(sess.Windows) {
		idx = len(sess.Windows)
	}
	sess.Windows = append(sess.Windows, nil)
	copy(sess.Windows[idx+1:], sess.Windows[idx:])
	sess.Windows[idx] = win
	reindexWindowsLocked(sess)

	m.registerPaneLocked(pane)
	m.selectWindowLocked(sess, win.ID)
	return win, pane, nil
}

// reindexWindowsLocked recomputes each window's Index from its slice
// position, the same in-order convention reindexPanesLocked uses for panes.
func reindexWindowsLocked(sess *Session) {
	for i, w := range sess.Windows {
		w.Index = i
	}
}

// selectWindowLocked updates current/last-window pointers (spec §4.D:
// select-window updates current AND last, to the previously-current
// window).
func (m *Manager) selectWindowLocked(sess *Session, windowID int) {
	if sess.ActiveWindowID == windowID {
		return
	}
	if sess.FindWindow(sess.ActiveWindowID) != nil {
		sess.LastWindowID = sess.ActiveWindowID
	}
	sess.ActiveWindowID = windowID
	if win := sess.FindWindow(windowID); win != nil {
		m.clearActivityLocked(win)
	}
}

// SelectWindow makes windowID the session's current window.
func (m *Manager) SelectWindow(sessionName string, windowID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if sess.FindWindow(windowID) == nil {
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	m.selectWindowLocked(sess, windowID)
	return nil
}

// LastWindow selects the session's previous window (tmux's last-window /
// `select-window -l`), swapping current/last.
func (m *Manager) LastWindow(sessionName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if sess.FindWindow(sess.LastWindowID) == nil {
		return fmt.Errorf("no last window: %w", errs.ErrNotFound)
	}
	m.selectWindowLocked(sess, sess.LastWindowID)
	return nil
}

// NextWindow/PreviousWindow cycle through the session's window list in
// slice order, wrapping around.
func (m *Manager) NextWindow(sessionName string) error { return m.stepWindow(sessionName, 1) }
func (m *Manager) PreviousWindow(sessionName string) error { return m.stepWindow(sessionName, -1) }

func (m *Manager) stepWindow(sessionName string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if len(sess.Windows) == 0 {
		return fmt.Errorf("no windows: %w", errs.ErrNotFound)
	}
	cur := -1
	for i, w := range sess.Windows {
		if w.ID == sess.ActiveWindowID {
			cur = i
			break
		}
	}
	if cur < 0 {
		cur = 0
	}
	next := ((cur+delta)%len(sess.Windows) + len(sess.Windows)) % len(sess.Windows)
	m.selectWindowLocked(sess, sess.Windows[next].ID)
	return nil
}

// RenameWindow sets a window's name and clears its automatic-name flag.
func (m *Manager) RenameWindow(sessionName string, windowID int, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	win := sess.FindWindow(windowID)
	if win == nil {
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("new window name cannot be empty: %w", errs.ErrParse)
	}
	win.Name = newName
	win.NameIsAutomatic = false
	return nil
}

// RemoveWindow deletes a window and all its panes. If it was the session's
// last window, the session itself is removed. Each removed pane is handed
// to onPaneClosed so its PTY can be released.
func (m *Manager) RemoveWindow(sessionName string, windowID int) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	idx := -1
	for i, w := range sess.Windows {
		if w.ID == windowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	win := sess.Windows[idx]
	panes := append([]*Pane(nil), win.Panes...)
	for _, p := range panes {
		m.unregisterPaneLocked(p.ID)
	}
	sess.Windows = append(sess.Windows[:idx], sess.Windows[idx+1:]...)
	reindexWindowsLocked(sess)

	sessionRemoved := false
	if len(sess.Windows) == 0 {
		delete(m.sessions, sessionName)
		sessionRemoved = true
	} else if sess.ActiveWindowID == windowID {
		fallback := idx
		if fallback >= len(sess.Windows) {
			fallback = len(sess.Windows) - 1
		}
		sess.ActiveWindowID = sess.Windows[fallback].ID
	}
	_ = sessionRemoved
	m.mu.Unlock()

	for _, p := range panes {
		m.closePane(p)
	}
	return nil
}

// MarkActivity sets a window's activity flag (spec §4.D: set when a
// non-current window emits bytes under monitor-activity). Cleared whenever
// that window next becomes current via SelectWindow/NextWindow/etc.
// MarkActivity ignores the session's current window, and
// clearActivityLocked is idempotent.
func (m *Manager) MarkActivity(sessionName string, windowID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return
	}
	if win := sess.FindWindow(windowID); win != nil && sess.ActiveWindowID != windowID {
		win.Activity = true
	}
}

func (m *Manager) clearActivityLocked(win *Window) {
	win.Activity = false
}
