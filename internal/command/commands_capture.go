package command

import (
	"strconv"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/screen"
)

func init() {
	register("capture-pane", cmdCapturePane)
	register("display-message", cmdDisplayMessage)
	register("clear-history", cmdClearHistory)
}

// cmdCapturePane implements spec §4.I's capture-pane -p/-J/-S/-E: render
// a row range (default: the visible grid only) as plain text, one line
// per row, joining wrapped rows when -J is set.
func cmdCapturePane(ctx *execContext, req Request) (Result, error) {
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
	scr := pty.Screen()
	hist := scr.ScrollbackLen()
	start := parseCaptureLine(req.str("-S", ""), hist, 0)
	end := parseCaptureLine(req.str("-E", ""), hist, visibleRowCount(scr)-1)

	rows := captureRows(scr, hist, start, end, visibleRowCount(scr))
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}
	if req.Bools["-J"] {
		lines = joinWrapped(rows, lines)
	}
	text := strings.Join(lines, "\n")
	if !req.Bools["-p"] {
		name, err := ctx.manager().SetBuffer(t.Session.Name, req.str("-b", ""), []byte(text))
		if err != nil {
			return fail(err)
		}
		return ok(name), nil
	}
	return ok(text), nil
}

// parseCaptureLine interprets one of capture-pane's -S/-E line numbers:
// "" uses fallback, "-" means the oldest scrollback row, a negative
// number counts back from the first visible row, and a non-negative
// number is a visible-grid row index (spec §4.I).
func parseCaptureLine(raw string, hist, fallback int) int {
	switch raw {
	case "":
		return fallback
	case "-":
		return -hist
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// captureRows translates capture-pane's -S/-E line numbers (negative =
// into scrollback, 0 = first visible row, as tmux documents) into a
// flat list of screen.Row, oldest first.
func captureRows(scr *screen.Screen, hist, start, end, visibleRows int) []screen.Row {
	absStart := hist + start
	absEnd := hist + end
	if absStart < 0 {
		absStart = 0
	}
	maxIdx := hist + visibleRows - 1
	if absEnd > maxIdx {
		absEnd = maxIdx
	}
	var rows []screen.Row
	for i := absStart; i <= absEnd; i++ {
		if i < hist {
			if row, ok := scr.HistoryRow(i); ok {
				rows = append(rows, row)
			}
			continue
		}
		if row, ok := scr.GridRow(i - hist); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func visibleRowCount(scr *screen.Screen) int {
	snap := scr.Snap()
	return snap.Rows
}

func renderRow(row screen.Row) string {
	var b strings.Builder
	for _, c := range row.Cells {
		if c.Continuation {
			continue
		}
		if c.Ch == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Ch)
	}
	return strings.TrimRight(b.String(), " ")
}

func joinWrapped(rows []screen.Row, lines []string) []string {
	var out []string
	var cur strings.Builder
	for i, row := range rows {
		cur.WriteString(lines[i])
		if row.Wrapped {
			continue
		}
		out = append(out, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func cmdClearHistory(ctx *execContext, req Request) (Result, error) {
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
	pty.Screen().ClearHistory()
	return ok(""), nil
}

func cmdDisplayMessage(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	tmpl := firstArg(req)
	if tmpl == "" {
		tmpl = "[#{session_name}] #{window_index}:#{window_name}, pane #{pane_index}"
	}
	text := renderFormat(ctx, req, t, tmpl)
	return ok(text), nil
}
