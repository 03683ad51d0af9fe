package command

import (
	"errors"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/format"
)

func init() {
	register("new-session", cmdNewSession)
	register("attach-session", cmdAttachSession)
	register("detach-client", cmdDetachClient)
	register("has-session", cmdHasSession)
	register("kill-session", cmdKillSession)
	register("kill-server", cmdKillServer)
	register("list-sessions", cmdListSessions)
	register("rename-session", cmdRenameSession)
	register("switch-client", cmdSwitchClient)
	register("find-window", cmdFindWindow)
}

func cmdNewSession(ctx *execContext, req Request) (Result, error) {
	m := ctx.manager()
	name := req.str("-s", "")
	winName := req.str("-n", "")
	cols := req.intFlag("-x", 0)
	rows := req.intFlag("-y", 0)

	sess, pane, err := m.CreateSession(name, winName, cols, rows)
	if err != nil {
		if errors.Is(err, errs.ErrDuplicate) {
			return fail(errorf("duplicate session: %s", name))
		}
		return fail(err)
	}
	for k, v := range req.Envs {
		sess.Env[k] = v
	}
	ctx.fireHook(sess, "after-new-session")

	if req.Bools["-P"] {
		return ok(renderFormat(ctx, req, Target{Session: sess, Window: sess.ActiveWindow(), Pane: pane},
			"#{session_name}:")), nil
	}
	return ok(""), nil
}

func cmdAttachSession(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return ok(t.Session.Name), nil
}

func cmdDetachClient(ctx *execContext, req Request) (Result, error) {
	// Detach is a client/connection-level effect; internal/server observes
	// this result's Output == "detach" and closes the connection.
	return Result{Output: "detach", ExitCode: 0}, nil
}

func cmdHasSession(ctx *execContext, req Request) (Result, error) {
	name := req.str("-t", "")
	if name == "" {
		return Result{ExitCode: 1}, errorf("has-session requires -t: %w", errs.ErrParse)
	}
	if !ctx.manager().HasSession(name) {
		return Result{ExitCode: 1}, errorf("session %s: %w", name, errs.ErrNotFound)
	}
	return ok(""), nil
}

func cmdKillSession(ctx *execContext, req Request) (Result, error) {
	m := ctx.manager()
	if req.Bools["-a"] {
		t, err := ctx.requireTarget(req)
		if err != nil {
			return fail(err)
		}
		for _, s := range m.ListSessions() {
			if s.Name != t.Session.Name {
				m.RemoveSession(s.Name)
			}
		}
		return ok(""), nil
	}
	name := req.str("-t", "")
	if name == "" {
		return Result{ExitCode: 1}, errorf("kill-session requires -t: %w", errs.ErrParse)
	}
	if err := m.RemoveSession(name); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdKillServer(ctx *execContext, req Request) (Result, error) {
	ctx.manager().Close()
	return Result{Output: "shutdown", ExitCode: 0}, nil
}

func cmdListSessions(ctx *execContext, req Request) (Result, error) {
	tmpl := req.str("-F", "#{session_name}: #{session_windows} windows")
	var lines []string
	for _, s := range ctx.manager().ListSessions() {
		lines = append(lines, renderFormat(ctx, req, Target{Session: s, Window: s.ActiveWindow()}, tmpl))
	}
	return ok(strings.Join(lines, "\n")), nil
}

func cmdRenameSession(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	newName := firstArg(req)
	if newName == "" {
		return fail(errorf("rename-session requires a new name: %w", errs.ErrParse))
	}
	if err := ctx.manager().RenameSession(t.Session.Name, newName); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdSwitchClient(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return Result{Output: "switch:" + t.Session.Name, ExitCode: 0}, nil
}

func cmdFindWindow(ctx *execContext, req Request) (Result, error) {
	needle := firstArg(req)
	if needle == "" {
		return fail(errorf("find-window requires a search string: %w", errs.ErrParse))
	}
	var matches []string
	for _, s := range ctx.manager().ListSessions() {
		for _, w := range s.Windows {
			if strings.Contains(w.Name, needle) {
				matches = append(matches, s.Name+":"+w.IDString())
			}
		}
	}
	return ok(strings.Join(matches, "\n")), nil
}

func firstArg(req Request) string {
	if len(req.Args) == 0 {
		return ""
	}
	return req.Args[0]
}

// renderFormat evaluates tmpl against t, falling back to the raw template
// on a format error (spec never specifies erroring display commands for
// malformed user-supplied -F strings; showing the literal template is the
// safer failure mode for an interactive terminal multiplexer).
func renderFormat(ctx *execContext, req Request, t Target, tmpl string) string {
	out, err := format.Eval(tmpl, ctx.formatContext(t))
	if err != nil {
		return tmpl
	}
	return out
}
