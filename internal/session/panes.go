package session

import (
	"fmt"

	"psmux/internal/errs"
	"psmux/internal/layout"
	"psmux/internal/options"
)

// SplitPane splits targetPaneID's leaf via internal/layout, allocating a
// new pane of the same window. sizeCells <= 0 halves the space. Fails,
// leaving the window's layout and panes unchanged, when the split would
// leave any pane below layout.MinPaneSize; the pane id allocated for the
// attempt is not reused.
func (m *Manager) SplitPane(targetPaneID int, dir layout.Orientation, sizeCells int, workingDir string) (*Pane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.panes[targetPaneID]
	if !ok {
		return nil, fmt.Errorf("pane %%%d: %w", targetPaneID, errs.ErrNotFound)
	}
	win := target.Window

	newPaneID := m.allocPaneIDLocked()
	next, err := layout.Split(win.Layout, targetPaneID, dir, newPaneID, sizeCells)
	if err != nil {
		return nil, err
	}
	win.Layout = next

	newPane := &Pane{ID: newPaneID, Window: win, Env: copyEnv(target.Env), WorkingDir: workingDir, Opts: options.NewSet()}
	win.Panes = append(win.Panes, newPane)
	m.registerPaneLocked(newPane)
	m.reindexPanesLocked(win)
	m.applyPaneRectsLocked(win)
	win.ActivePaneID = newPane.ID
	win.LastPaneID = target.ID
	return newPane, nil
}

// reindexPanesLocked recomputes each pane's Index from the layout's
// in-order traversal (spec §3: "index derived from layout in-order
// traversal"), re-sorting win.Panes to match so Index == slice position.
func (m *Manager) reindexPanesLocked(win *Window) {
	order := layout.Panes(win.Layout)
	byID := make(map[int]*Pane, len(win.Panes))
	for _, p := range win.Panes {
		byID[p.ID] = p
	}
	out := make([]*Pane, 0, len(order))
	for i, id := range order {
		p := byID[id]
		if p == nil {
			continue
		}
		p.Index = i
		out = append(out, p)
	}
	win.Panes = out
}

// applyPaneRectsLocked copies each leaf's computed rectangle from the
// layout tree onto its Pane.Width/Height.
func (m *Manager) applyPaneRectsLocked(win *Window) {
	for _, p := range win.Panes {
		if leaf := layout.Find(win.Layout, p.ID); leaf != nil {
			p.Width, p.Height = leaf.W, leaf.H
		}
	}
}

// ResizePane adjusts paneID's size along dir by amount cells (resize-pane
// -U/-D/-L/-R), clamped to layout.MinPaneSize on the neighbor.
func (m *Manager) ResizePane(paneID int, dir layout.Orientation, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pane, ok := m.panes[paneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	win := pane.Window
	next, err := layout.Resize(win.Layout, paneID, dir, amount)
	if err != nil {
		return err
	}
	win.Layout = next
	m.applyPaneRectsLocked(win)
	return nil
}

// ResizePaneAbsolute sets paneID's width/height to an absolute cell count
// (resize-pane -x/-y).
func (m *Manager) ResizePaneAbsolute(paneID int, dir layout.Orientation, target int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pane, ok := m.panes[paneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	win := pane.Window
	next, err := layout.ResizeAbsolute(win.Layout, paneID, dir, target)
	if err != nil {
		return err
	}
	win.Layout = next
	m.applyPaneRectsLocked(win)
	return nil
}

// ResizeWindow recomputes windowID's whole layout tree against a new
// client terminal size (the client-size line attached clients send, spec
// §4.J), the same way a zoom/split recompute does but rooted at the full
// window instead of one pane.
func (m *Manager) ResizeWindow(windowID, cols, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		if win := sess.FindWindow(windowID); win != nil {
			layout.Recompute(win.Layout, 0, 0, cols, rows)
			m.applyPaneRectsLocked(win)
			return nil
		}
	}
	return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
}

// SelectPane makes paneID the window's current pane, tracking last-pane
// the same way windows track last-window.
func (m *Manager) SelectPane(paneID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pane, ok := m.panes[paneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	win := pane.Window
	if win.ActivePaneID == paneID {
		return nil
	}
	win.LastPaneID = win.ActivePaneID
	win.ActivePaneID = paneID
	return nil
}

// LastPane re-selects the window's previously-active pane.
func (m *Manager) LastPane(windowSessionName string, windowID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[windowSessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", windowSessionName, errs.ErrNotFound)
	}
	win := sess.FindWindow(windowID)
	if win == nil {
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	if win.FindPane(win.LastPaneID) == nil {
		return fmt.Errorf("no last pane: %w", errs.ErrNotFound)
	}
	win.LastPaneID, win.ActivePaneID = win.ActivePaneID, win.LastPaneID
	return nil
}

// RemovePane drops paneID from its window's layout. If it was the
// window's last pane, the window (and possibly the session) is removed
// via RemoveWindow semantics.
func (m *Manager) RemovePane(paneID int) error {
	m.mu.Lock()
	pane, ok := m.panes[paneID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	win := pane.Window
	sess := win.Session

	next, removed := layout.Remove(win.Layout, paneID)
	if !removed {
		m.mu.Unlock()
		return fmt.Errorf("pane %%%d not in layout: %w", paneID, errs.ErrNotFound)
	}
	m.unregisterPaneLocked(paneID)

	if next == nil {
		// Last pane in the window: fall through to window removal.
		m.mu.Unlock()
		return m.RemoveWindow(sess.Name, win.ID)
	}

	win.Layout = next
	kept := make([]*Pane, 0, len(win.Panes)-1)
	for _, p := range win.Panes {
		if p.ID != paneID {
			kept = append(kept, p)
		}
	}
	win.Panes = kept
	m.reindexPanesLocked(win)
	m.applyPaneRectsLocked(win)
	if win.ActivePaneID == paneID {
		win.ActivePaneID = win.Panes[0].ID
	}
	if win.ZoomedFrom != nil {
		if zoomedNext, ok := layout.Remove(win.ZoomedFrom, paneID); ok {
			win.ZoomedFrom = zoomedNext
		}
	}
	m.mu.Unlock()
	m.closePane(pane)
	return nil
}

// ZoomPane saves the window's full layout tree and replaces it with a
// single leaf spanning the whole window (spec §4.C, single-level zoom:
// zooming an already-zoomed window is a no-op).
func (m *Manager) ZoomPane(paneID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pane, ok := m.panes[paneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	win := pane.Window
	if win.ZoomedFrom != nil {
		return nil
	}
	x, y, w, h := layout.Rect(win.Layout)
	win.ZoomedFrom = win.Layout
	full := layout.NewLeaf(paneID)
	layout.Recompute(full, x, y, w, h)
	win.Layout = full
	m.applyPaneRectsLocked(win)
	return nil
}

// UnzoomPane restores the saved layout tree, resizing every pane back to
// its stored rectangle.
func (m *Manager) UnzoomPane(windowSessionName string, windowID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[windowSessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", windowSessionName, errs.ErrNotFound)
	}
	win := sess.FindWindow(windowID)
	if win == nil {
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	if win.ZoomedFrom == nil {
		return nil
	}
	win.Layout = win.ZoomedFrom
	win.ZoomedFrom = nil
	m.applyPaneRectsLocked(win)
	return nil
}

// IsZoomed reports whether windowID currently has a pane zoomed.
func (w *Window) IsZoomed() bool { return w.ZoomedFrom != nil }
