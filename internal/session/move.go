package session

import (
	"fmt"

	"psmux/internal/errs"
	"psmux/internal/layout"
)

// MoveWindow relocates windowID from its session to destSessionName,
// inserting at destIdx (append when destIdx < 0). Used by move-window.
func (m *Manager) MoveWindow(sessionName string, windowID int, destSessionName string, destIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	dst, ok := m.sessions[destSessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", destSessionName, errs.ErrNotFound)
	}

	idx := -1
	for i, w := range src.Windows {
		if w.ID == windowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("window @%d: %w", windowID, errs.ErrNotFound)
	}
	win := src.Windows[idx]

	src.Windows = append(src.Windows[:idx], src.Windows[idx+1:]...)
	reindexWindowsLocked(src)
	if len(src.Windows) == 0 {
		delete(m.sessions, sessionName)
	} else if src.ActiveWindowID == windowID {
		fallback := idx
		if fallback >= len(src.Windows) {
			fallback = len(src.Windows) - 1
		}
		src.ActiveWindowID = src.Windows[fallback].ID
	}

	win.Session = dst
	if destIdx < 0 || destIdx > len(dst.Windows) {
		destIdx = len(dst.Windows)
	}
	dst.Windows = append(dst.Windows, nil)
	copy(dst.Windows[destIdx+1:], dst.Windows[destIdx:])
	dst.Windows[destIdx] = win
	reindexWindowsLocked(dst)
	m.selectWindowLocked(dst, win.ID)
	return nil
}

// SwapWindow exchanges the positions (and session membership) of two
// windows, each identified by (session, id).
func (m *Manager) SwapWindow(sessA string, idA int, sessB string, idB int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sa, ok := m.sessions[sessA]
	if !ok {
		return fmt.Errorf("session %s: %w", sessA, errs.ErrNotFound)
	}
	sb, ok := m.sessions[sessB]
	if !ok {
		return fmt.Errorf("session %s: %w", sessB, errs.ErrNotFound)
	}

	posA := -1
	for i, w := range sa.Windows {
		if w.ID == idA {
			posA = i
			break
		}
	}
	posB := -1
	for i, w := range sb.Windows {
		if w.ID == idB {
			posB = i
			break
		}
	}
	if posA < 0 {
		return fmt.Errorf("window @%d: %w", idA, errs.ErrNotFound)
	}
	if posB < 0 {
		return fmt.Errorf("window @%d: %w", idB, errs.ErrNotFound)
	}

	winA, winB := sa.Windows[posA], sb.Windows[posB]
	winA.Session, winB.Session = sb, sa
	sa.Windows[posA] = winB
	sb.Windows[posB] = winA
	reindexWindowsLocked(sa)
	if sa != sb {
		reindexWindowsLocked(sb)
	}
	return nil
}

// RotateWindow rotates windowID's panes' positions within the layout by
// one step (direction > 0 forward, < 0 backward), matching
// rotate-window's pane-content-shuffle semantics applied to pane identity:
// the pane holding each rectangle changes, but rectangles themselves do
// not move.
func (m *Manager) RotateWindow(sessionName string, windowID int, direction int) error {
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
	n := len(win.Panes)
	if n < 2 {
		return nil
	}

	ids := append([]int(nil), layout.Panes(win.Layout)...)
	newIDAtPosition := make([]int, n)
	for i := range ids {
		var srcPos int
		if direction >= 0 {
			srcPos = (i - 1 + n) % n
		} else {
			srcPos = (i + 1) % n
		}
		newIDAtPosition[i] = ids[srcPos]
	}

	assignPaneIDsByPosition(win.Layout, newIDAtPosition)
	m.reindexPanesLocked(win)
	m.applyPaneRectsLocked(win)
	return nil
}

// assignPaneIDsByPosition walks root's leaves in the same traversal order
// layout.Panes uses and overwrites each leaf's PaneID from ids, leaving
// rectangles (X/Y/W/H) untouched: only which pane occupies each rectangle
// changes.
func assignPaneIDsByPosition(root *layout.Node, ids []int) {
	i := 0
	var walk func(n *layout.Node)
	walk = func(n *layout.Node) {
		if n == nil {
			return
		}
		if n.IsLeaf() {
			if i < len(ids) {
				n.PaneID = ids[i]
			}
			i++
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
}

// relabelPaneIDs walks every leaf of root and replaces a pane id found in
// from with the id at the same position in to, leaving rectangles
// untouched: only which pane occupies each rectangle changes. Unlike
// assignPaneIDsByPosition, this matches by identity rather than traversal
// position, for the 1:1 exchanges SwapPane and JoinPane need.
func relabelPaneIDs(root *layout.Node, from, to []int) {
	mapping := make(map[int]int, len(from))
	for i, id := range from {
		mapping[id] = to[i]
	}
	var walk func(n *layout.Node)
	walk = func(n *layout.Node) {
		if n == nil {
			return
		}
		if n.IsLeaf() {
			if newID, ok := mapping[n.PaneID]; ok {
				n.PaneID = newID
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
}

// SwapPane exchanges the rectangles of two panes, which may belong to
// different windows (even different sessions); pane identity moves with
// its content, the rectangles it occupied stay put.
func (m *Manager) SwapPane(paneIDA, paneIDB int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.panes[paneIDA]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneIDA, errs.ErrNotFound)
	}
	b, ok := m.panes[paneIDB]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", paneIDB, errs.ErrNotFound)
	}
	if a.ID == b.ID {
		return nil
	}

	winA, winB := a.Window, b.Window
	if winA == winB {
		relabelPaneIDs(winA.Layout, []int{a.ID, b.ID}, []int{b.ID, a.ID})
	} else {
		relabelPaneIDs(winA.Layout, []int{a.ID}, []int{b.ID})
		relabelPaneIDs(winB.Layout, []int{b.ID}, []int{a.ID})
	}

	for i, p := range winA.Panes {
		if p.ID == a.ID {
			winA.Panes[i] = b
		}
	}
	for i, p := range winB.Panes {
		if p.ID == b.ID {
			winB.Panes[i] = a
		}
	}
	a.Window, b.Window = winB, winA
	if winA.ActivePaneID == a.ID {
		winA.ActivePaneID = b.ID
	}
	if winB.ActivePaneID == b.ID {
		winB.ActivePaneID = a.ID
	}
	m.reindexPanesLocked(winA)
	m.applyPaneRectsLocked(winA)
	if winA != winB {
		m.reindexPanesLocked(winB)
		m.applyPaneRectsLocked(winB)
	}
	return nil
}

// JoinPane moves sourcePaneID out of its window and splits it into
// targetPaneID's window along dir, the cross-window/cross-session
// counterpart of SplitPane (join-pane).
func (m *Manager) JoinPane(sourcePaneID, targetPaneID int, dir layout.Orientation, sizeCells int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.panes[sourcePaneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", sourcePaneID, errs.ErrNotFound)
	}
	target, ok := m.panes[targetPaneID]
	if !ok {
		return fmt.Errorf("pane %%%d: %w", targetPaneID, errs.ErrNotFound)
	}
	if src.ID == target.ID {
		return fmt.Errorf("cannot join pane with itself: %w", errs.ErrParse)
	}
	srcWin := src.Window
	destWin := target.Window

	next, removed := layout.Remove(srcWin.Layout, src.ID)
	if !removed {
		return fmt.Errorf("pane %%%d not in layout: %w", src.ID, errs.ErrNotFound)
	}
	srcKept := make([]*Pane, 0, len(srcWin.Panes)-1)
	for _, p := range srcWin.Panes {
		if p.ID != src.ID {
			srcKept = append(srcKept, p)
		}
	}
	srcWin.Panes = srcKept
	if next == nil {
		sess := srcWin.Session
		idx := -1
		for i, w := range sess.Windows {
			if w.ID == srcWin.ID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			sess.Windows = append(sess.Windows[:idx], sess.Windows[idx+1:]...)
			reindexWindowsLocked(sess)
			if len(sess.Windows) == 0 {
				delete(m.sessions, sess.Name)
			} else if sess.ActiveWindowID == srcWin.ID {
				fallback := idx
				if fallback >= len(sess.Windows) {
					fallback = len(sess.Windows) - 1
				}
				sess.ActiveWindowID = sess.Windows[fallback].ID
			}
		}
	} else {
		srcWin.Layout = next
		m.reindexPanesLocked(srcWin)
		m.applyPaneRectsLocked(srcWin)
		if srcWin.ActivePaneID == src.ID && len(srcWin.Panes) > 0 {
			srcWin.ActivePaneID = srcWin.Panes[0].ID
		}
	}

	destNext, err := layout.Split(destWin.Layout, target.ID, dir, src.ID, sizeCells)
	if err != nil {
		return err
	}
	destWin.Layout = destNext
	src.Window = destWin
	destWin.Panes = append(destWin.Panes, src)
	m.reindexPanesLocked(destWin)
	m.applyPaneRectsLocked(destWin)
	destWin.ActivePaneID = src.ID
	return nil
}
