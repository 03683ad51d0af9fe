package command

import (
	"strconv"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/session"
)

// Target is a resolved -t reference: at minimum a session, optionally
// narrowed to a window and then a pane (spec §4.I: "session",
// "session:window", "session:window.pane", "@id"/"$id"/"%id", and bare
// index strings interpreted against the current session").
type Target struct {
	Session *session.Session
	Window  *session.Window
	Pane    *session.Pane
}

// resolveTarget parses raw against m, falling back to currentSession (the
// invoking client's attached session, possibly "") when raw is empty or
// names only a window/pane with no session component.
func resolveTarget(m *session.Manager, currentSession, raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		sess, ok := m.GetSession(currentSession)
		if !ok {
			return Target{}, errorf("no current session: %w", errs.ErrNotFound)
		}
		return targetFromSession(sess), nil
	}

	if id, ok := parseSigil(raw, '%'); ok {
		pane, ok := m.GetPane(id)
		if !ok {
			return Target{}, errorf("pane %%%d: %w", id, errs.ErrNotFound)
		}
		return Target{Session: pane.Window.Session, Window: pane.Window, Pane: pane}, nil
	}
	if id, ok := parseSigil(raw, '@'); ok {
		return resolveWindowByID(m, id)
	}
	if id, ok := parseSigil(raw, '$'); ok {
		return resolveSessionByID(m, id)
	}

	sessionPart, rest, hasColon := strings.Cut(raw, ":")
	if !hasColon {
		// Bare session name, or a bare index against the current session.
		if sess, ok := m.GetSession(raw); ok {
			return targetFromSession(sess), nil
		}
		if idx, err := strconv.Atoi(raw); err == nil {
			sess, ok := m.GetSession(currentSession)
			if !ok {
				return Target{}, errorf("no current session: %w", errs.ErrNotFound)
			}
			return targetAtWindowIndex(sess, idx)
		}
		return Target{}, errorf("session %s: %w", raw, errs.ErrNotFound)
	}

	if sessionPart == "" {
		sessionPart = currentSession
	}
	sess, ok := m.GetSession(sessionPart)
	if !ok {
		return Target{}, errorf("session %s: %w", sessionPart, errs.ErrNotFound)
	}

	windowPart, panePart, hasDot := strings.Cut(rest, ".")
	windowIdx, err := strconv.Atoi(windowPart)
	if err != nil {
		return Target{}, errorf("invalid window index %q: %w", windowPart, errs.ErrParse)
	}
	t, err := targetAtWindowIndex(sess, windowIdx)
	if err != nil {
		return Target{}, err
	}
	if !hasDot {
		return t, nil
	}
	paneIdx, err := strconv.Atoi(panePart)
	if err != nil {
		return Target{}, errorf("invalid pane index %q: %w", panePart, errs.ErrParse)
	}
	if paneIdx < 0 || paneIdx >= len(t.Window.Panes) {
		return Target{}, errorf("pane .%d: %w", paneIdx, errs.ErrNotFound)
	}
	t.Pane = t.Window.Panes[paneIdx]
	return t, nil
}

func parseSigil(raw string, sigil byte) (int, bool) {
	if len(raw) < 2 || raw[0] != sigil {
		return 0, false
	}
	id, err := strconv.Atoi(raw[1:])
	if err != nil {
		return 0, false
	}
	return id, true
}

func resolveWindowByID(m *session.Manager, id int) (Target, error) {
	for _, sess := range m.ListSessions() {
		if win := sess.FindWindow(id); win != nil {
			return Target{Session: sess, Window: win, Pane: win.ActivePane()}, nil
		}
	}
	return Target{}, errorf("window @%d: %w", id, errs.ErrNotFound)
}

func resolveSessionByID(m *session.Manager, id int) (Target, error) {
	for _, sess := range m.ListSessions() {
		if sess.ID == id {
			return targetFromSession(sess), nil
		}
	}
	return Target{}, errorf("session $%d: %w", id, errs.ErrNotFound)
}

func targetFromSession(sess *session.Session) Target {
	win := sess.ActiveWindow()
	var pane *session.Pane
	if win != nil {
		pane = win.ActivePane()
	}
	return Target{Session: sess, Window: win, Pane: pane}
}

func targetAtWindowIndex(sess *session.Session, idx int) (Target, error) {
	for _, w := range sess.Windows {
		if w.Index == idx {
			return Target{Session: sess, Window: w, Pane: w.ActivePane()}, nil
		}
	}
	return Target{}, errorf("window %d: %w", idx, errs.ErrNotFound)
}
