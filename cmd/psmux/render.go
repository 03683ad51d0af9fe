package main

import (
	"bufio"
	"fmt"
	"io"
)

// renderer paints a dump-state snapshot's panes onto the local terminal
// using absolute cursor positioning, so the client never has to reconcile
// a diff against what it last drew: the daemon's dump-state already carries
// one full snapshot of the active window, unchanged rows and all.
type renderer struct {
	w       *bufio.Writer
	lastSGR string
}

func newRenderer(w io.Writer) *renderer {
	r := &renderer{w: bufio.NewWriter(w)}
	fmt.Fprint(r.w, "\x1b[2J\x1b[?25l")
	r.w.Flush()
	return r
}

// render draws every pane's text grid, then positions the real cursor over
// the active pane's reported cursor cell.
func (r *renderer) render(snap dumpStateJSON) {
	fmt.Fprint(r.w, "\x1b[?25l")
	var activePane *dumpPane
	for i := range snap.Panes {
		p := &snap.Panes[i]
		r.renderPane(p)
		if p.Active {
			activePane = p
		}
	}
	if activePane != nil && activePane.CursorVisible {
		fmt.Fprintf(r.w, "\x1b[%d;%dH\x1b[?25h", activePane.Y+activePane.CursorY+1, activePane.X+activePane.CursorX+1)
	}
	r.w.Flush()
}

func (r *renderer) renderPane(p *dumpPane) {
	r.lastSGR = ""
	for row := 0; row < len(p.Text) && row < len(p.Attrs); row++ {
		fmt.Fprintf(r.w, "\x1b[%d;%dH", p.Y+row+1, p.X+1)
		r.renderRow([]rune(p.Text[row]), p.Attrs[row])
	}
}

// renderRow groups consecutive cells sharing identical attributes into one
// SGR run, matching how a real terminal renderer avoids re-emitting an
// escape sequence per character.
func (r *renderer) renderRow(cells []rune, attrs []dumpCellAttr) {
	for i := 0; i < len(cells) && i < len(attrs); i++ {
		sgr := sgrFor(attrs[i])
		if sgr != r.lastSGR {
			fmt.Fprint(r.w, sgr)
			r.lastSGR = sgr
		}
		fmt.Fprint(r.w, string(cells[i]))
	}
}

// reset restores cursor visibility and a clean prompt line on detach.
func (r *renderer) reset() {
	fmt.Fprint(r.w, "\x1b[0m\x1b[?25h\r\n")
	r.w.Flush()
}
