package command

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"psmux/internal/copymode"
	"psmux/internal/errs"
	"psmux/internal/session"
)

func init() {
	register("set-hook", cmdSetHook)
	register("show-hooks", cmdShowHooks)
	register("run-shell", cmdRunShell)
	register("if-shell", cmdIfShell)
	register("wait-for", cmdWaitFor)
	register("source-file", cmdSourceFile)
	register("copy-mode", cmdCopyMode)
	register("clock-mode", cmdClockMode)
	register("refresh-client", cmdRefreshClient)
	register("list-commands", cmdListCommands)
}

func cmdSetHook(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if len(req.Args) == 0 {
		return fail(errorf("set-hook requires an event name: %w", errs.ErrParse))
	}
	name := req.Args[0]
	if t.Session.Hooks == nil {
		t.Session.Hooks = map[string][]string{}
	}
	if req.Bools["-u"] {
		delete(t.Session.Hooks, name)
		return ok(""), nil
	}
	cmdLine := strings.Join(req.Args[1:], " ")
	if cmdLine == "" {
		return fail(errorf("set-hook requires a command: %w", errs.ErrParse))
	}
	if req.Bools["-a"] {
		t.Session.Hooks[name] = append(t.Session.Hooks[name], cmdLine)
	} else {
		t.Session.Hooks[name] = []string{cmdLine}
	}
	return ok(""), nil
}

func cmdShowHooks(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	var lines []string
	for name, cmds := range t.Session.Hooks {
		for _, c := range cmds {
			lines = append(lines, name+" "+c)
		}
	}
	return ok(strings.Join(lines, "\n")), nil
}

// cmdRunShell invokes the host shell (spec §4.I Misc), the same
// powershell.exe entry point internal/config/internal/terminal use to
// launch pane processes, rather than a bare os/exec call with whatever
// is on PATH.
func cmdRunShell(ctx *execContext, req Request) (Result, error) {
	line := strings.Join(req.Args, " ")
	if line == "" {
		return fail(errorf("run-shell requires a command: %w", errs.ErrParse))
	}
	if req.Bools["-b"] {
		go runShellLine(line)
		return ok(""), nil
	}
	out, err := runShellLine(line)
	if err != nil {
		return fail(err)
	}
	return ok(out), nil
}

func runShellLine(line string) (string, error) {
	cmd := exec.Command("powershell.exe", "-NoProfile", "-Command", line)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// cmdIfShell runs test-command and dispatches to command-if-true or
// command-if-false depending on the exit status (spec §4.I). Args are
// ["test", "if-true"] or ["test", "if-true", "if-false"]; -F treats
// "test" as a format expression rather than a shell command.
func cmdIfShell(ctx *execContext, req Request) (Result, error) {
	if len(req.Args) < 2 {
		return fail(errorf("if-shell requires a test and a command: %w", errs.ErrParse))
	}
	test, trueCmd := req.Args[0], req.Args[1]
	var falseCmd string
	if len(req.Args) > 2 {
		falseCmd = req.Args[2]
	}

	var truthy bool
	if req.Bools["-F"] {
		t, _ := ctx.target(req.str("-t", ""))
		rendered := renderFormat(ctx, req, t, test)
		truthy = rendered != "" && rendered != "0"
	} else {
		_, err := runShellLine(test)
		truthy = err == nil
	}

	chosen := falseCmd
	if truthy {
		chosen = trueCmd
	}
	if chosen == "" {
		return ok(""), nil
	}
	argv, err := splitShellWords(chosen)
	if err != nil || len(argv) == 0 {
		return ok(""), nil
	}
	return ctx.d.Execute(ctx.currentSession, argv)
}

// waitChannelsMu guards Session.WaitChannels creation; locking the
// session-wide m.mu around a blocking -L receive would deadlock every
// other command against that session, so wait-for uses its own mutex
// scoped to channel-map bookkeeping only (spec §4.K).
var waitChannelsMu sync.Mutex

func cmdWaitFor(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	name := firstArg(req)
	if name == "" {
		return fail(errorf("wait-for requires a channel name: %w", errs.ErrParse))
	}
	ch := ensureWaitChannel(t.Session, name)

	switch {
	case req.Bools["-U"], req.Bools["-S"]:
		select {
		case ch <- struct{}{}:
		default:
		}
		return ok(""), nil
	default:
		<-ch
		return ok(""), nil
	}
}

// ensureWaitChannel returns sess's buffered(1) channel for name,
// pre-filled with a token on creation so a first wait-for -L with no
// prior -U/-S acquires it at once instead of blocking forever. The
// channel holds a single token, not a broadcast to every waiter: each
// -U/-S wakes at most one blocked -L.
func ensureWaitChannel(sess *session.Session, name string) chan struct{} {
	waitChannelsMu.Lock()
	defer waitChannelsMu.Unlock()
	if sess.WaitChannels == nil {
		sess.WaitChannels = map[string]chan struct{}{}
	}
	ch, ok := sess.WaitChannels[name]
	if !ok {
		ch = make(chan struct{}, 1)
		ch <- struct{}{}
		sess.WaitChannels[name] = ch
	}
	return ch
}

func cmdSourceFile(ctx *execContext, req Request) (Result, error) {
	path := firstArg(req)
	if path == "" {
		return fail(errorf("source-file requires a path: %w", errs.ErrParse))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	var lastErr error
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		argv, err := splitShellWords(line)
		if err != nil || len(argv) == 0 {
			continue
		}
		if _, err := ctx.d.Execute(ctx.currentSession, argv); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fail(lastErr)
	}
	return ok(""), nil
}

// cmdCopyMode enters copy mode on the target pane (spec §4.H): snapshots
// the pane's screen into a copymode.State and stores it on the pane so
// send-keys/-X routes subsequent keys there instead of the live PTY.
// -u additionally scrolls up one page, tmux's "enter and page up" form.
func cmdCopyMode(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	pty, ok := ctx.pty(t.Pane)
	if !ok {
		return fail(errorf("pane %%%d has no active PTY: %w", t.Pane.ID, errs.ErrNotFound))
	}
	sessName := t.Session.Name
	yank := func(register byte, data []byte) {
		name := ""
		if register != '"' {
			name = string(register)
		}
		ctx.manager().SetBuffer(sessName, name, data)
	}
	wordSeparators := resolveWordSeparators(ctx, t)
	state := copymode.New(pty.Screen(), wordSeparators, yank)
	if req.Bools["-u"] {
		state.MovePageUp(visibleRowCount(pty.Screen()))
	}
	t.Pane.CopyMode = state
	return ok(""), nil
}

func resolveWordSeparators(ctx *execContext, t Target) string {
	r, err := lookupResolved(ctx, t, "word-separators")
	if err != nil {
		return " -@\"'"
	}
	return r.Value.Str
}

func cmdClockMode(ctx *execContext, req Request) (Result, error) {
	_, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	return ok(time.Now().Format("15:04:05")), nil
}

func cmdRefreshClient(ctx *execContext, req Request) (Result, error) {
	// A no-op at the dispatcher layer: attached clients poll dump-state
	// for screen state, so refresh-client has nothing additional to
	// recompute here.
	return ok(""), nil
}

func cmdListCommands(ctx *execContext, req Request) (Result, error) {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	return ok(strings.Join(names, "\n")), nil
}
