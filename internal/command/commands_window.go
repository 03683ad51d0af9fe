package command

import (
	"strconv"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/session"
)

func init() {
	register("new-window", cmdNewWindow)
	register("kill-window", cmdKillWindow)
	register("rename-window", cmdRenameWindow)
	register("list-windows", cmdListWindows)
	register("select-window", cmdSelectWindow)
	register("next-window", cmdNextWindow)
	register("previous-window", cmdPreviousWindow)
	register("last-window", cmdLastWindow)
	register("move-window", cmdMoveWindow)
	register("swap-window", cmdSwapWindow)
}

func cmdNewWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	name := req.str("-n", "")
	workingDir := req.str("-c", "")
	win, pane, err := ctx.manager().NewWindow(t.Session.Name, name, workingDir, -1, 0, 0)
	if err != nil {
		return fail(err)
	}
	for k, v := range req.Envs {
		pane.Env[k] = v
	}
	ctx.fireHook(t.Session, "after-new-window")
	if req.Bools["-P"] {
		tmpl := req.str("-F", "#{session_name}:#{window_index}")
		return ok(renderFormat(ctx, req, Target{Session: t.Session, Window: win, Pane: pane}, tmpl)), nil
	}
	return ok(""), nil
}

func cmdKillWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	m := ctx.manager()
	if req.Bools["-a"] {
		sess := t.Session
		for _, w := range append([]*session.Window(nil), sess.Windows...) {
			if w.ID != t.Window.ID {
				m.RemoveWindow(sess.Name, w.ID)
			}
		}
		return ok(""), nil
	}
	if err := m.RemoveWindow(t.Session.Name, t.Window.ID); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdRenameWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	newName := firstArg(req)
	if newName == "" {
		return fail(errorf("rename-window requires a new name: %w", errs.ErrParse))
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	if err := ctx.manager().RenameWindow(t.Session.Name, t.Window.ID, newName); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdListWindows(ctx *execContext, req Request) (Result, error) {
	tmpl := req.str("-F", "#{window_index}: #{window_name}#{?window_active, (active),}")
	var lines []string
	m := ctx.manager()
	sessions := m.ListSessions()
	if name := req.str("-t", ""); name != "" && !req.Bools["-a"] {
		sessions = filterSessionsByName(sessions, name)
	}
	for _, s := range sessions {
		for _, w := range s.Windows {
			lines = append(lines, renderFormat(ctx, req, Target{Session: s, Window: w, Pane: w.ActivePane()}, tmpl))
		}
	}
	return ok(strings.Join(lines, "\n")), nil
}

func cmdSelectWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if req.Bools["-l"] {
		return resultErrOrOK(ctx.manager().LastWindow(t.Session.Name))
	}
	if req.Bools["-n"] {
		return resultErrOrOK(ctx.manager().NextWindow(t.Session.Name))
	}
	if req.Bools["-p"] {
		return resultErrOrOK(ctx.manager().PreviousWindow(t.Session.Name))
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	return resultErrOrOK(ctx.manager().SelectWindow(t.Session.Name, t.Window.ID))
}

func cmdNextWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return resultErrOrOK(ctx.manager().NextWindow(t.Session.Name))
}

func cmdPreviousWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return resultErrOrOK(ctx.manager().PreviousWindow(t.Session.Name))
}

func cmdLastWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return resultErrOrOK(ctx.manager().LastWindow(t.Session.Name))
}

func cmdMoveWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	destRaw := firstArg(req)
	destSess := t.Session.Name
	destIdx := -1
	if destRaw != "" {
		sessPart, idxPart, hasColon := strings.Cut(destRaw, ":")
		if sessPart != "" {
			destSess = sessPart
		}
		if hasColon && idxPart != "" {
			if n, err := strconv.Atoi(idxPart); err == nil {
				destIdx = n
			}
		}
	}
	if err := ctx.manager().MoveWindow(t.Session.Name, t.Window.ID, destSess, destIdx); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdSwapWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	destRaw := firstArg(req)
	if destRaw == "" {
		return fail(errorf("swap-window requires a destination: %w", errs.ErrParse))
	}
	destTarget, err := ctx.target(destRaw)
	if err != nil {
		return fail(err)
	}
	if destTarget.Window == nil {
		return fail(errorf("no destination window: %w", errs.ErrNotFound))
	}
	if err := ctx.manager().SwapWindow(t.Session.Name, t.Window.ID, destTarget.Session.Name, destTarget.Window.ID); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func resultErrOrOK(err error) (Result, error) {
	if err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func filterSessionsByName(sessions []*session.Session, name string) []*session.Session {
	var out []*session.Session
	for _, s := range sessions {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
