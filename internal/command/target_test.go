package command

import (
	"errors"
	"testing"

	"psmux/internal/errs"
	"psmux/internal/session"
)

func newTestManager(t *testing.T) (*session.Manager, *session.Session, *session.Pane) {
	t.Helper()
	m := session.NewManager(nil)
	sess, pane, err := m.CreateSession("work", "main", 80, 24)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return m, sess, pane
}

func TestResolveTargetBareSessionName(t *testing.T) {
	m, sess, pane := newTestManager(t)
	tgt, err := resolveTarget(m, "", "work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Session != sess || tgt.Pane != pane {
		t.Fatalf("got target %+v", tgt)
	}
}

func TestResolveTargetEmptyFallsBackToCurrent(t *testing.T) {
	m, sess, _ := newTestManager(t)
	tgt, err := resolveTarget(m, "work", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Session != sess {
		t.Fatalf("expected current session fallback, got %+v", tgt)
	}

	_, err = resolveTarget(m, "", "")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no current session, got %v", err)
	}
}

func TestResolveTargetSessionWindowPane(t *testing.T) {
	m, sess, _ := newTestManager(t)
	win2, pane2, err := m.NewWindow("work", "second", "", -1, 80, 24)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	tgt, err := resolveTarget(m, "", "work:1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Session != sess || tgt.Window != win2 || tgt.Pane != pane2 {
		t.Fatalf("got target %+v, want window %+v pane %+v", tgt, win2, pane2)
	}
}

func TestResolveTargetBareIndexAgainstCurrentSession(t *testing.T) {
	m, sess, _ := newTestManager(t)
	win2, _, err := m.NewWindow("work", "second", "", -1, 80, 24)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	tgt, err := resolveTarget(m, "work", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Session != sess || tgt.Window != win2 {
		t.Fatalf("got %+v", tgt)
	}
}

func TestResolveTargetSigils(t *testing.T) {
	m, sess, pane := newTestManager(t)
	win := sess.ActiveWindow()

	tgt, err := resolveTarget(m, "", pane.IDString())
	if err != nil {
		t.Fatalf("%%pane sigil: unexpected error: %v", err)
	}
	if tgt.Pane != pane {
		t.Fatalf("%%pane sigil resolved to wrong pane: %+v", tgt)
	}

	tgt, err = resolveTarget(m, "", win.IDString())
	if err != nil {
		t.Fatalf("@window sigil: unexpected error: %v", err)
	}
	if tgt.Window != win {
		t.Fatalf("@window sigil resolved to wrong window: %+v", tgt)
	}

	tgt, err = resolveTarget(m, "", sess.IDString())
	if err != nil {
		t.Fatalf("$session sigil: unexpected error: %v", err)
	}
	if tgt.Session != sess {
		t.Fatalf("$session sigil resolved to wrong session: %+v", tgt)
	}
}

func TestResolveTargetUnknownSessionFails(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := resolveTarget(m, "", "ghost")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTargetInvalidPaneIndexFails(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := resolveTarget(m, "", "work:0.9")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for out-of-range pane index, got %v", err)
	}
}

func TestResolveTargetMalformedWindowIndexFails(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := resolveTarget(m, "", "work:notanumber")
	if !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestResolveTargetColonWithEmptySessionUsesCurrent(t *testing.T) {
	m, sess, _ := newTestManager(t)
	tgt, err := resolveTarget(m, "work", ":0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tgt.Session != sess {
		t.Fatalf("expected current session fallback for empty session part, got %+v", tgt)
	}
}
