package command

import (
	"strconv"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/layout"
)

func init() {
	register("split-window", cmdSplitWindow)
	register("kill-pane", cmdKillPane)
	register("select-pane", cmdSelectPane)
	register("list-panes", cmdListPanes)
	register("resize-pane", cmdResizePane)
	register("swap-pane", cmdSwapPane)
	register("rotate-window", cmdRotateWindow)
	register("display-panes", cmdDisplayPanes)
	register("pipe-pane", cmdPipePane)
	register("join-pane", cmdJoinPane)
}

func cmdSplitWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	dir := orientationFromFlags(req)
	size := parseSplitSize(req)
	workingDir := req.str("-c", "")
	pane, err := ctx.manager().SplitPane(t.Pane.ID, dir, size, workingDir)
	if err != nil {
		return fail(err)
	}
	for k, v := range req.Envs {
		pane.Env[k] = v
	}
	ctx.fireHook(t.Session, "after-split-window")
	if req.Bools["-P"] {
		tmpl := req.str("-F", "#{session_name}:#{window_index}.#{pane_index}")
		return ok(renderFormat(ctx, req, Target{Session: t.Session, Window: t.Window, Pane: pane}, tmpl)), nil
	}
	return ok(""), nil
}

// parseSplitSize interprets split-window/join-pane's -l (cells, or a
// trailing "%" for percent-of-parent — percent is resolved to 0 here,
// a pending refinement, since layout.Split's sizeCells<=0 already means
// "split evenly" which is the common case).
func parseSplitSize(req Request) int {
	raw := req.str("-l", "")
	if raw == "" {
		return 0
	}
	if strings.HasSuffix(raw, "%") {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func cmdKillPane(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	sess := t.Session
	if err := ctx.manager().RemovePane(t.Pane.ID); err != nil {
		return fail(err)
	}
	ctx.fireHook(sess, "after-kill-pane")
	return ok(""), nil
}

func cmdSelectPane(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	if req.Strs["-T"] != "" {
		t.Pane.Title = req.Strs["-T"]
		return ok(""), nil
	}
	switch {
	case req.Bools["-U"], req.Bools["-D"], req.Bools["-L"], req.Bools["-R"]:
		return navigateAdjacentPane(ctx, t, req)
	default:
		return resultErrOrOK(ctx.manager().SelectPane(t.Pane.ID))
	}
}

// navigateAdjacentPane picks the neighboring pane whose rectangle lies in
// the requested direction from t.Pane and selects it (select-pane
// -U/-D/-L/-R), the pane-level counterpart of a window-manager focus move.
func navigateAdjacentPane(ctx *execContext, t Target, req Request) (Result, error) {
	cur := layout.Find(t.Window.Layout, t.Pane.ID)
	if cur == nil {
		return fail(errorf("pane not in layout: %w", errs.ErrNotFound))
	}
	cx, cy, cw, ch := cur.X, cur.Y, cur.W, cur.H
	var best *layout.Node
	bestDist := -1
	for _, id := range layout.Panes(t.Window.Layout) {
		if id == t.Pane.ID {
			continue
		}
		n := layout.Find(t.Window.Layout, id)
		if n == nil || !directionMatches(req, cx, cy, cw, ch, n) {
			continue
		}
		dist := abs(n.X-cx) + abs(n.Y-cy)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = n
		}
	}
	if best == nil {
		return ok(""), nil
	}
	return resultErrOrOK(ctx.manager().SelectPane(best.PaneID))
}

func directionMatches(req Request, cx, cy, cw, ch int, n *layout.Node) bool {
	switch {
	case req.Bools["-U"]:
		return n.Y+n.H <= cy
	case req.Bools["-D"]:
		return n.Y >= cy+ch
	case req.Bools["-L"]:
		return n.X+n.W <= cx
	case req.Bools["-R"]:
		return n.X >= cx+cw
	default:
		return false
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func cmdListPanes(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	tmpl := req.str("-F", "#{pane_index}: [#{pane_width}x#{pane_height}] #{?pane_active,(active),}")
	var lines []string
	if req.Bools["-s"] {
		for _, w := range t.Session.Windows {
			for _, p := range w.Panes {
				lines = append(lines, renderFormat(ctx, req, Target{Session: t.Session, Window: w, Pane: p}, tmpl))
			}
		}
		return ok(strings.Join(lines, "\n")), nil
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	for _, p := range t.Window.Panes {
		lines = append(lines, renderFormat(ctx, req, Target{Session: t.Session, Window: t.Window, Pane: p}, tmpl))
	}
	return ok(strings.Join(lines, "\n")), nil
}

func cmdResizePane(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	m := ctx.manager()
	if req.Bools["-Z"] {
		if t.Window.IsZoomed() {
			return resultErrOrOK(m.UnzoomPane(t.Session.Name, t.Window.ID))
		}
		return resultErrOrOK(m.ZoomPane(t.Pane.ID))
	}
	if x, ok := req.Ints["-x"]; ok {
		if err := m.ResizePaneAbsolute(t.Pane.ID, layout.Horizontal, x); err != nil {
			return fail(err)
		}
	}
	if y, ok := req.Ints["-y"]; ok {
		if err := m.ResizePaneAbsolute(t.Pane.ID, layout.Vertical, y); err != nil {
			return fail(err)
		}
	}
	amount := 1
	switch {
	case req.Bools["-U"]:
		return resultErrOrOK(m.ResizePane(t.Pane.ID, layout.Vertical, -amount))
	case req.Bools["-D"]:
		return resultErrOrOK(m.ResizePane(t.Pane.ID, layout.Vertical, amount))
	case req.Bools["-L"]:
		return resultErrOrOK(m.ResizePane(t.Pane.ID, layout.Horizontal, -amount))
	case req.Bools["-R"]:
		return resultErrOrOK(m.ResizePane(t.Pane.ID, layout.Horizontal, amount))
	}
	return ok(""), nil
}

func cmdSwapPane(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	otherRaw := req.str("-s", "")
	if otherRaw == "" {
		return fail(errorf("swap-pane requires -s: %w", errs.ErrParse))
	}
	other, err := ctx.target(otherRaw)
	if err != nil {
		return fail(err)
	}
	if other.Pane == nil {
		return fail(errorf("no source pane: %w", errs.ErrNotFound))
	}
	if err := ctx.manager().SwapPane(t.Pane.ID, other.Pane.ID); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdRotateWindow(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	dir := 1
	if req.Bools["-D"] {
		dir = -1
	}
	if err := ctx.manager().RotateWindow(t.Session.Name, t.Window.ID, dir); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

func cmdDisplayPanes(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Window == nil {
		return fail(errorf("no window: %w", errs.ErrNotFound))
	}
	var indices []string
	for _, p := range t.Window.Panes {
		indices = append(indices, strconv.Itoa(p.Index))
	}
	return ok(strings.Join(indices, " ")), nil
}

func cmdPipePane(ctx *execContext, req Request) (Result, error) {
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
	target := firstArg(req)
	if target == "" {
		pty.PipeOff()
		t.Pane.PipeTarget = ""
		return ok(""), nil
	}
	if err := pty.PipeOn(target); err != nil {
		return fail(err)
	}
	t.Pane.PipeTarget = target
	return ok(""), nil
}

func cmdJoinPane(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if t.Pane == nil {
		return fail(errorf("no pane: %w", errs.ErrNotFound))
	}
	srcRaw := req.str("-s", "")
	if srcRaw == "" {
		return fail(errorf("join-pane requires -s: %w", errs.ErrParse))
	}
	srcTarget, err := ctx.target(srcRaw)
	if err != nil {
		return fail(err)
	}
	if srcTarget.Pane == nil {
		return fail(errorf("no source pane: %w", errs.ErrNotFound))
	}
	dir := orientationFromFlags(req)
	size := parseSplitSize(req)
	if err := ctx.manager().JoinPane(srcTarget.Pane.ID, t.Pane.ID, dir, size); err != nil {
		return fail(err)
	}
	return ok(""), nil
}
