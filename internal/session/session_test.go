package session

import (
	"testing"
	"time"

	"psmux/internal/layout"
)

func TestCreateSessionDefaultsNameAndSize(t *testing.T) {
	m := NewManager(nil)
	sess, pane, err := m.CreateSession("", "", 0, 0)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.Name != "0" {
		t.Fatalf("auto session name = %q, want %q", sess.Name, "0")
	}
	if pane.Width != DefaultCols || pane.Height != DefaultRows {
		t.Fatalf("pane size = %dx%d, want %dx%d", pane.Width, pane.Height, DefaultCols, DefaultRows)
	}
	if len(sess.Windows) != 1 || len(sess.Windows[0].Panes) != 1 {
		t.Fatal("expected exactly one window with one pane")
	}
}

func TestCreateSessionRejectsDuplicateName(t *testing.T) {
	m := NewManager(nil)
	if _, _, err := m.CreateSession("work", "", 80, 24); err != nil {
		t.Fatalf("first CreateSession() error = %v", err)
	}
	if _, _, err := m.CreateSession("work", "", 80, 24); err == nil {
		t.Fatal("expected duplicate session name to error")
	}
}

func TestNewWindowBecomesCurrentAndTracksLast(t *testing.T) {
	m := NewManager(nil)
	sess, _, _ := m.CreateSession("work", "", 80, 24)
	firstWindowID := sess.ActiveWindowID

	win2, _, err := m.NewWindow("work", "logs", "", -1, 80, 24)
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if sess.ActiveWindowID != win2.ID {
		t.Fatalf("active window = %d, want %d", sess.ActiveWindowID, win2.ID)
	}
	if sess.LastWindowID != firstWindowID {
		t.Fatalf("last window = %d, want %d", sess.LastWindowID, firstWindowID)
	}

	if err := m.LastWindow("work"); err != nil {
		t.Fatalf("LastWindow() error = %v", err)
	}
	if sess.ActiveWindowID != firstWindowID {
		t.Fatalf("after LastWindow active = %d, want %d", sess.ActiveWindowID, firstWindowID)
	}
}

func TestNextWindowWraps(t *testing.T) {
	m := NewManager(nil)
	sess, _, _ := m.CreateSession("work", "", 80, 24)
	w1 := sess.ActiveWindowID
	w2, _, _ := m.NewWindow("work", "", "", -1, 80, 24)

	if err := m.NextWindow("work"); err != nil {
		t.Fatalf("NextWindow() error = %v", err)
	}
	if sess.ActiveWindowID != w1 {
		t.Fatalf("wrapped active window = %d, want %d", sess.ActiveWindowID, w1)
	}
	_ = w2
}

func TestSplitPaneGrowsWindowAndReindexes(t *testing.T) {
	m := NewManager(nil)
	sess, pane, _ := m.CreateSession("work", "", 40, 20)

	newPane, err := m.SplitPane(pane.ID, layout.Vertical, 0, "")
	if err != nil {
		t.Fatalf("SplitPane() error = %v", err)
	}
	win := sess.Windows[0]
	if len(win.Panes) != 2 {
		t.Fatalf("panes = %d, want 2", len(win.Panes))
	}
	if win.ActivePaneID != newPane.ID {
		t.Fatalf("active pane = %%%d, want %%%d", win.ActivePaneID, newPane.ID)
	}
	if win.LastPaneID != pane.ID {
		t.Fatalf("last pane = %%%d, want %%%d", win.LastPaneID, pane.ID)
	}
	if err := layout.Validate(win.Layout); err != nil {
		t.Fatalf("layout invalid after split: %v", err)
	}
}

func TestSplitPaneTooSmallLeavesStateUnchanged(t *testing.T) {
	m := NewManager(nil)
	_, pane, _ := m.CreateSession("work", "", 3, 3)
	before := pane.Width

	if _, err := m.SplitPane(pane.ID, layout.Horizontal, 0, ""); err == nil {
		t.Fatal("expected too-small error")
	}
	if pane.Width != before {
		t.Fatalf("pane width changed despite failed split: %d != %d", pane.Width, before)
	}
}

func TestZoomAndUnzoomRestoresLayout(t *testing.T) {
	m := NewManager(nil)
	sess, pane, _ := m.CreateSession("work", "", 40, 20)
	other, _ := m.SplitPane(pane.ID, layout.Horizontal, 0, "")
	win := sess.Windows[0]
	originalRoot := win.Layout

	if err := m.ZoomPane(other.ID); err != nil {
		t.Fatalf("ZoomPane() error = %v", err)
	}
	if !win.IsZoomed() {
		t.Fatal("expected window to report zoomed")
	}
	if win.Layout.PaneID != other.ID || !win.Layout.IsLeaf() {
		t.Fatalf("zoomed layout = %+v, want single leaf for %%%d", win.Layout, other.ID)
	}

	if err := m.UnzoomPane("work", win.ID); err != nil {
		t.Fatalf("UnzoomPane() error = %v", err)
	}
	if win.IsZoomed() {
		t.Fatal("expected window to report unzoomed")
	}
	if win.Layout != originalRoot {
		t.Fatal("expected unzoom to restore the original tree")
	}
}

func TestRemovePaneLastInWindowRemovesSession(t *testing.T) {
	var closed []int
	m := NewManager(func(p *Pane) { closed = append(closed, p.ID) })
	_, pane, _ := m.CreateSession("work", "", 40, 20)

	if err := m.RemovePane(pane.ID); err != nil {
		t.Fatalf("RemovePane() error = %v", err)
	}
	if m.HasSession("work") {
		t.Fatal("expected session removed once its only pane closes")
	}
	if len(closed) != 1 || closed[0] != pane.ID {
		t.Fatalf("onPaneClosed calls = %v, want [%d]", closed, pane.ID)
	}
}

func TestRemovePaneKeepsWindowWhenSiblingsRemain(t *testing.T) {
	m := NewManager(nil)
	sess, pane, _ := m.CreateSession("work", "", 40, 20)
	other, _ := m.SplitPane(pane.ID, layout.Horizontal, 0, "")

	if err := m.RemovePane(other.ID); err != nil {
		t.Fatalf("RemovePane() error = %v", err)
	}
	win := sess.Windows[0]
	if len(win.Panes) != 1 || win.Panes[0].ID != pane.ID {
		t.Fatalf("panes = %+v, want only %%%d", win.Panes, pane.ID)
	}
	if !win.Layout.IsLeaf() {
		t.Fatal("expected layout reduced to a leaf")
	}
}

func TestSetBufferNewestFirst(t *testing.T) {
	m := NewManager(nil)
	m.CreateSession("work", "", 80, 24)

	if _, err := m.SetBuffer("work", "", []byte("one")); err != nil {
		t.Fatalf("SetBuffer() error = %v", err)
	}
	if _, err := m.SetBuffer("work", "", []byte("two")); err != nil {
		t.Fatalf("SetBuffer() error = %v", err)
	}
	bufs, err := m.ListBuffers("work")
	if err != nil {
		t.Fatalf("ListBuffers() error = %v", err)
	}
	if len(bufs) != 2 || string(bufs[0].Data) != "two" {
		t.Fatalf("buffers = %+v, want newest (\"two\") first", bufs)
	}
}

func TestDeleteBufferWithoutNameRemovesNewest(t *testing.T) {
	m := NewManager(nil)
	m.CreateSession("work", "", 80, 24)
	m.SetBuffer("work", "", []byte("one"))
	m.SetBuffer("work", "", []byte("two"))

	if err := m.DeleteBuffer("work", ""); err != nil {
		t.Fatalf("DeleteBuffer() error = %v", err)
	}
	data, err := m.ShowBuffer("work", "")
	if err != nil {
		t.Fatalf("ShowBuffer() error = %v", err)
	}
	if string(data) != "one" {
		t.Fatalf("remaining buffer = %q, want %q", data, "one")
	}
}

func TestUpdateActivityWakesIdleSession(t *testing.T) {
	m := NewManager(nil)
	sess, pane, _ := m.CreateSession("work", "", 80, 24)
	sess.Idle = true

	if woke := m.UpdateActivity(pane.ID); !woke {
		t.Fatal("expected UpdateActivity to report waking an idle session")
	}
	if sess.Idle {
		t.Fatal("expected session no longer idle")
	}
}

func TestCheckIdleStateTransitionsAfterThreshold(t *testing.T) {
	m := NewManager(nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.idleThreshold = time.Minute
	m.CreateSession("work", "", 80, 24)

	if changed := m.CheckIdleState(); changed {
		t.Fatal("expected no idle transition immediately after creation")
	}
	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if changed := m.CheckIdleState(); !changed {
		t.Fatal("expected idle transition after threshold elapses")
	}
}
