package command

import (
	"psmux/internal/errs"
	"psmux/internal/layout"
	"psmux/internal/session"
)

func init() {
	register("select-layout", cmdSelectLayout)
	register("next-layout", cmdNextLayout)
	register("previous-layout", cmdPreviousLayout)
}

func cmdSelectLayout(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	win := t.Window
	m := ctx.manager()

	arg := firstArg(req)
	if arg == "" {
		return fail(errorf("select-layout requires a layout name or string: %w", errs.ErrParse))
	}
	if parsed, parseErr := layout.Parse(arg); parseErr == nil {
		m.Lock()
		win.Layout = parsed
		win.CurrentLayoutPreset = ""
		m.Unlock()
		return ok(""), nil
	}
	win.CurrentLayoutPreset = arg
	return applyPreset(m, win, layout.Preset(arg))
}

func applyPreset(m *session.Manager, win *session.Window, preset layout.Preset) (Result, error) {
	x, y, w, h := layout.Rect(win.Layout)
	ids := layout.Panes(win.Layout)
	m.Lock()
	win.Layout = layout.BuildPreset(preset, ids, w, h)
	layout.Recompute(win.Layout, x, y, w, h)
	win.CurrentLayoutPreset = string(preset)
	m.Unlock()
	return ok(""), nil
}

func cmdNextLayout(ctx *execContext, req Request) (Result, error) {
	return stepLayout(ctx, req, layout.NextPreset)
}

func cmdPreviousLayout(ctx *execContext, req Request) (Result, error) {
	return stepLayout(ctx, req, layout.PreviousPreset)
}

func stepLayout(ctx *execContext, req Request, step func(layout.Preset) layout.Preset) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	next := step(layout.Preset(t.Window.CurrentLayoutPreset))
	t.Window.CurrentLayoutPreset = string(next)
	return applyPreset(ctx.manager(), t.Window, next)
}
