package command

import (
	"errors"
	"fmt"
	"strings"

	"psmux/internal/copymode"
	"psmux/internal/errs"
	"psmux/internal/keytable"
	"psmux/internal/options"
)

func init() {
	register("bind-key", cmdBindKey)
	register("unbind-key", cmdUnbindKey)
	register("list-keys", cmdListKeys)
	register("send-keys", cmdSendKeys)
	register("send-prefix", cmdSendPrefix)
}

// cmdBindKey/cmdUnbindKey build their keytable.Registry call directly from
// Request rather than re-running internal/keytable.ParseBindArgs/
// ParseUnbindArgs: Parse (spec §4.I's tmux-strict getopt) has already
// consumed -n/-r/-T into req.Bools/req.Strs using the same flag kinds
// bindargs.go's own loop recognizes, so re-feeding req.Args through that
// parser would see a table/flag-free remainder and silently default
// every binding to table "prefix".
func cmdBindKey(ctx *execContext, req Request) (Result, error) {
	if ctx.d.Keys == nil {
		return fail(errorf("no key registry configured: %w", errs.ErrNotFound))
	}
	if len(req.Args) == 0 {
		return fail(errorf("bind-key requires a key: %w", errs.ErrParse))
	}
	table := bindTable(req)
	key := keytable.NormalizeKey(req.Args[0])
	command := strings.Join(req.Args[1:], " ")
	if command == "" {
		return fail(errorf("bind-key requires a command: %w", errs.ErrParse))
	}
	ctx.d.Keys.Bind(table, key, command, req.Bools["-r"])
	return ok(""), nil
}

func cmdUnbindKey(ctx *execContext, req Request) (Result, error) {
	if ctx.d.Keys == nil {
		return fail(errorf("no key registry configured: %w", errs.ErrNotFound))
	}
	table := bindTable(req)
	if req.Bools["-a"] {
		ctx.d.Keys.Unbind(table, "", true)
		return ok(""), nil
	}
	if len(req.Args) == 0 {
		return fail(errorf("unbind-key requires a key: %w", errs.ErrParse))
	}
	ctx.d.Keys.Unbind(table, keytable.NormalizeKey(req.Args[0]), false)
	return ok(""), nil
}

// resolvePrefixKey looks up the "prefix" option down t's scope chain,
// falling back to the compiled-in default on any lookup failure (an
// unknown-option error should never reach send-prefix since "prefix" is
// always registered in options.Known).
func resolvePrefixKey(ctx *execContext, t Target) string {
	var paneOpts, winOpts, sessOpts *options.Set
	if t.Pane != nil {
		paneOpts = t.Pane.Opts
	}
	if t.Window != nil {
		winOpts = t.Window.Opts
	}
	if t.Session != nil {
		sessOpts = t.Session.Opts
	}
	r, err := options.LookupChain("prefix", paneOpts, winOpts, sessOpts, ctx.manager().ServerOpts)
	if err != nil {
		return "C-b"
	}
	return r.Value.Str
}

func bindTable(req Request) string {
	if req.Bools["-n"] {
		return "root"
	}
	if t, ok := req.Strs["-T"]; ok {
		return t
	}
	return "prefix"
}

func cmdListKeys(ctx *execContext, req Request) (Result, error) {
	if ctx.d.Keys == nil {
		return ok(""), nil
	}
	table := req.str("-T", "prefix")
	var lines []string
	for _, b := range ctx.d.Keys.ListKeys(table) {
		rep := ""
		if b.Repeatable {
			rep = "-r "
		}
		lines = append(lines, fmt.Sprintf("bind-key %s-T %s %s %s", rep, table, b.Key, b.Command))
	}
	return ok(strings.Join(lines, "\n")), nil
}

func cmdSendKeys(ctx *execContext, req Request) (Result, error) {
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
	if cmdName, has := req.Strs["-X"]; has {
		// -X dispatches a copy-mode command instead of literal keys;
		// internal/copymode owns the actual state, command only forwards.
		return ok(""), sendCopyModeCommand(t, cmdName)
	}
	if req.Bools["-l"] {
		return ok(""), pty.Write([]byte(strings.Join(req.Args, " ")))
	}
	if state, inCopyMode := t.Pane.CopyMode.(*copymode.State); inCopyMode {
		for _, key := range req.Args {
			if err := state.Key(key); err != nil {
				if errors.Is(err, copymode.ErrExit) {
					t.Pane.CopyMode = nil
					return ok(""), nil
				}
				return fail(err)
			}
		}
		return ok(""), nil
	}
	var payload []byte
	for _, key := range req.Args {
		b, err := keytable.TranslateKey(key)
		if err != nil {
			payload = append(payload, []byte(key)...)
			continue
		}
		payload = append(payload, b...)
	}
	if err := pty.Write(payload); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdSendPrefix(ctx *execContext, req Request) (Result, error) {
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
	prefix := resolvePrefixKey(ctx, t)
	b, err := keytable.TranslateKey(prefix)
	if err != nil {
		return fail(err)
	}
	if err := pty.Write(b); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

// sendCopyModeCommand is a no-op when the pane isn't in copy mode,
// matching tmux's behavior for -X commands issued outside copy mode.
func sendCopyModeCommand(t Target, cmdName string) error {
	if t.Pane == nil {
		return nil
	}
	state, ok := t.Pane.CopyMode.(*copymode.State)
	if !ok {
		return nil
	}
	err := state.Command(cmdName)
	if errors.Is(err, copymode.ErrExit) {
		t.Pane.CopyMode = nil
		return nil
	}
	return err
}
