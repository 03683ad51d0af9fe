package session

import (
	"testing"

	"psmux/internal/layout"
)

func TestMoveWindowRelocatesAndReindexes(t *testing.T) {
	m := NewManager(nil)
	srcSess, _, err := m.CreateSession("src", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	dstSess, _, err := m.CreateSession("dst", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	win, _, err := m.NewWindow("src", "extra", "", -1, 80, 24)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.MoveWindow("src", win.ID, "dst", -1); err != nil {
		t.Fatalf("MoveWindow() error = %v", err)
	}
	if win.Session != dstSess {
		t.Fatal("window should now belong to dst session")
	}
	if len(srcSess.Windows) != 1 {
		t.Fatalf("src session should have 1 window left, got %d", len(srcSess.Windows))
	}
	if len(dstSess.Windows) != 2 {
		t.Fatalf("dst session should have 2 windows, got %d", len(dstSess.Windows))
	}
	for i, w := range dstSess.Windows {
		if w.Index != i {
			t.Errorf("dst window %d has Index %d, want %d", i, w.Index, i)
		}
	}
}

func TestSwapWindowExchangesPositions(t *testing.T) {
	m := NewManager(nil)
	sessA, _, err := m.CreateSession("a", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	sessB, _, err := m.CreateSession("b", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	winA := sessA.Windows[0]
	winB := sessB.Windows[0]

	if err := m.SwapWindow("a", winA.ID, "b", winB.ID); err != nil {
		t.Fatalf("SwapWindow() error = %v", err)
	}
	if sessA.Windows[0] != winB || sessB.Windows[0] != winA {
		t.Fatal("windows should have traded session membership at position 0")
	}
	if winA.Session != sessB || winB.Session != sessA {
		t.Fatal("Window.Session pointers should be updated")
	}
}

func TestSwapPaneExchangesIdentityNotRect(t *testing.T) {
	m := NewManager(nil)
	sess, firstPane, err := m.CreateSession("s", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	win := sess.Windows[0]
	second, err := m.SplitPane(firstPane.ID, layout.Horizontal, 0, "")
	if err != nil {
		t.Fatal(err)
	}

	firstRectBefore := rectOf(t, win, firstPane.ID)
	secondRectBefore := rectOf(t, win, second.ID)

	if err := m.SwapPane(firstPane.ID, second.ID); err != nil {
		t.Fatalf("SwapPane() error = %v", err)
	}

	firstRectAfter := rectOf(t, win, firstPane.ID)
	secondRectAfter := rectOf(t, win, second.ID)
	if firstRectAfter != secondRectBefore {
		t.Errorf("first pane should now occupy second's old rect")
	}
	if secondRectAfter != firstRectBefore {
		t.Errorf("second pane should now occupy first's old rect")
	}
}

type rect struct{ x, y, w, h int }

func rectOf(t *testing.T, win *Window, paneID int) rect {
	t.Helper()
	leaf := layout.Find(win.Layout, paneID)
	if leaf == nil {
		t.Fatalf("pane %%%d not found in layout", paneID)
	}
	x, y, w, h := layout.Rect(leaf)
	return rect{x, y, w, h}
}

func TestJoinPaneMovesAcrossWindows(t *testing.T) {
	m := NewManager(nil)
	_, sourcePane, err := m.CreateSession("s", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	destWin, destPane, err := m.NewWindow("s", "", "", -1, 80, 24)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.JoinPane(sourcePane.ID, destPane.ID, layout.Horizontal, 0); err != nil {
		t.Fatalf("JoinPane() error = %v", err)
	}
	if sourcePane.Window != destWin {
		t.Fatal("source pane should now belong to dest window")
	}
	if len(destWin.Panes) != 2 {
		t.Fatalf("dest window should have 2 panes, got %d", len(destWin.Panes))
	}
	if _, ok := m.sessions["s"]; !ok {
		t.Fatal("session should still exist (dest window keeps it alive)")
	}
}

func TestRotateWindowShufflesPaneIdentity(t *testing.T) {
	m := NewManager(nil)
	sess, p1, err := m.CreateSession("s", "", 80, 24)
	if err != nil {
		t.Fatal(err)
	}
	win := sess.Windows[0]
	p2, err := m.SplitPane(p1.ID, layout.Horizontal, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	p3, err := m.SplitPane(p2.ID, layout.Horizontal, 0, "")
	if err != nil {
		t.Fatal(err)
	}

	before := append([]int(nil), layout.Panes(win.Layout)...)
	if err := m.RotateWindow("s", win.ID, 1); err != nil {
		t.Fatalf("RotateWindow() error = %v", err)
	}
	after := layout.Panes(win.Layout)
	if len(after) != 3 {
		t.Fatalf("expected 3 panes after rotate, got %d", len(after))
	}
	if after[0] == before[0] && after[1] == before[1] && after[2] == before[2] {
		t.Error("rotate should have changed which pane occupies at least one rect")
	}
	_ = p3
}
