package command

import (
	"os"
	"strconv"
	"strings"

	"psmux/internal/errs"
)

func init() {
	register("set-buffer", cmdSetBuffer)
	register("show-buffer", cmdShowBuffer)
	register("list-buffers", cmdListBuffers)
	register("delete-buffer", cmdDeleteBuffer)
	register("save-buffer", cmdSaveBuffer)
	register("load-buffer", cmdLoadBuffer)
	register("paste-buffer", cmdPasteBuffer)
	register("choose-buffer", cmdChooseBuffer)
}

func cmdSetBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	data := strings.Join(req.Args, " ")
	name, err := ctx.manager().SetBuffer(t.Session.Name, req.str("-b", ""), []byte(data))
	if err != nil {
		return fail(err)
	}
	return ok(name), nil
}

func cmdShowBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	data, err := ctx.manager().ShowBuffer(t.Session.Name, req.str("-b", ""))
	if err != nil {
		return fail(err)
	}
	return ok(string(data)), nil
}

func cmdListBuffers(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	bufs, err := ctx.manager().ListBuffers(t.Session.Name)
	if err != nil {
		return fail(err)
	}
	var lines []string
	for i, b := range bufs {
		lines = append(lines, bufferSummaryLine(i, b.Name, len(b.Data)))
	}
	return ok(strings.Join(lines, "\n")), nil
}

func bufferSummaryLine(index int, name string, size int) string {
	return name + ": " + strconv.Itoa(index) + " bytes: " + strconv.Itoa(size)
}

func cmdDeleteBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if err := ctx.manager().DeleteBuffer(t.Session.Name, req.str("-b", "")); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

// cmdSaveBuffer/cmdLoadBuffer touch the filesystem directly (spec §4.F),
// as does cmdSourceFile (commands_misc.go); the other handlers go through
// internal/session/internal/options state only.
func cmdSaveBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	path := firstArg(req)
	if path == "" {
		return fail(errorf("save-buffer requires a path: %w", errs.ErrParse))
	}
	data, err := ctx.manager().ShowBuffer(t.Session.Name, req.str("-b", ""))
	if err != nil {
		return fail(err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if req.Bools["-a"] {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fail(err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdLoadBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	path := firstArg(req)
	if path == "" {
		return fail(errorf("load-buffer requires a path: %w", errs.ErrParse))
	}
	var data []byte
	if path == "-" {
		return fail(errorf("load-buffer from stdin is not supported over the wire protocol: %w", errs.ErrParse))
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	name, err := ctx.manager().SetBuffer(t.Session.Name, req.str("-b", ""), data)
	if err != nil {
		return fail(err)
	}
	return ok(name), nil
}

func cmdPasteBuffer(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	data, err := ctx.manager().ShowBuffer(t.Session.Name, req.str("-b", ""))
	if err != nil {
		return fail(err)
	}
	pty, ok := ctx.pty(t.Pane)
	if !ok {
		return fail(errorf("pane %%%d has no active PTY: %w", t.Pane.ID, errs.ErrNotFound))
	}
	if sep, has := req.Strs["-s"]; has {
		data = []byte(strings.ReplaceAll(string(data), "\n", sep))
	}
	if err := pty.Write(data); err != nil {
		return fail(err)
	}
	if req.Bools["-d"] {
		_ = ctx.manager().DeleteBuffer(t.Session.Name, req.str("-b", ""))
	}
	return ok(""), nil
}

func cmdChooseBuffer(ctx *execContext, req Request) (Result, error) {
	return cmdListBuffers(ctx, req)
}
