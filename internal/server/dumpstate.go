package server

import (
	"encoding/json"
	"fmt"
	"sort"

	"psmux/internal/copymode"
	"psmux/internal/errs"
	"psmux/internal/keytable"
	"psmux/internal/layout"
	"psmux/internal/options"
	"psmux/internal/screen"
	"psmux/internal/session"
)

// statusOptionNames is the named set of session-level options a renderer
// needs (spec §4.J: "session-level options needed by a renderer").
var statusOptionNames = []string{
	"status-left", "status-right", "status-style", "status-justify",
	"status-position", "window-status-format", "window-status-current-format",
	"window-status-style", "window-status-current-style",
	"message-style", "mode-style", "pane-border-style",
	"pane-active-border-style", "synchronize-panes", "copy-command",
	"set-clipboard",
}

type dumpWindow struct {
	ID     int    `json:"id"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Flags  string `json:"flags"`
	Zoomed bool   `json:"zoomed"`
}

type dumpCellAttr struct {
	Fg        string `json:"fg,omitempty"`
	Bg        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Reverse   bool   `json:"reverse,omitempty"`
	Blink     bool   `json:"blink,omitempty"`
	Dim       bool   `json:"dim,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
	Strike    bool   `json:"strike,omitempty"`
}

type dumpSelection struct {
	Mode      string `json:"mode"`
	AnchorX   int    `json:"anchorX"`
	AnchorY   int    `json:"anchorY"`
	CursorX   int    `json:"cursorX"`
	CursorY   int    `json:"cursorY"`
}

type dumpPane struct {
	ID            int             `json:"id"`
	X             int             `json:"x"`
	Y             int             `json:"y"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	Active        bool            `json:"active"`
	Dead          bool            `json:"dead"`
	CursorX       int             `json:"cursorX"`
	CursorY       int             `json:"cursorY"`
	CursorVisible bool            `json:"cursorVisible"`
	CursorBlink   bool            `json:"cursorBlink"`
	AltScreen     bool            `json:"altScreen"`
	Title         string          `json:"title"`
	Revision      uint64          `json:"revision"`
	DirtyRows     []int           `json:"dirtyRows,omitempty"`
	Text          []string        `json:"text"`
	Attrs         [][]dumpCellAttr `json:"attrs"`
	CopyMode      bool            `json:"copyMode"`
	Selection     *dumpSelection  `json:"selection,omitempty"`
}

type dumpStateJSON struct {
	Session     string            `json:"session"`
	Layout      string            `json:"layout"`
	Windows     []dumpWindow      `json:"windows"`
	Panes       []dumpPane        `json:"panes"`
	Options     map[string]string `json:"options"`
	PrefixArmed bool              `json:"prefixArmed"`
}

// dumpState builds the spec §4.J JSON snapshot for sessionName's active
// window. clientKeys is the requesting connection's own keytable.Dispatcher
// (nil if the connection never attached), since prefix-armed is
// per-connection state, not part of the shared session.
func (s *Server) dumpState(sessionName string, clientKeys *keytable.Dispatcher) (string, error) {
	s.Manager.RLock()
	defer s.Manager.RUnlock()

	sess, ok := s.Manager.FindSessionLocked(sessionName)
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}

	out := dumpStateJSON{
		Session: sess.Name,
		Options: s.statusOptions(sess),
	}
	if clientKeys != nil {
		out.PrefixArmed = clientKeys.Armed()
	}

	windows := append([]*session.Window(nil), sess.Windows...)
	sort.Slice(windows, func(i, j int) bool { return windows[i].Index < windows[j].Index })
	for _, win := range windows {
		out.Windows = append(out.Windows, dumpWindow{
			ID:     win.ID,
			Index:  win.Index,
			Name:   win.Name,
			Active: win.ID == sess.ActiveWindowID,
			Flags:  windowFlags(sess, win),
			Zoomed: win.ZoomedFrom != nil,
		})
	}

	active := sess.ActiveWindow()
	if active == nil {
		return marshal(out)
	}
	out.Layout = layout.Emit(active.Layout)

	panes := append([]*session.Pane(nil), active.Panes...)
	sort.Slice(panes, func(i, j int) bool { return panes[i].ID < panes[j].ID })
	for _, pane := range panes {
		out.Panes = append(out.Panes, s.dumpPane(active, pane))
	}
	return marshal(out)
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func windowFlags(sess *session.Session, win *session.Window) string {
	flags := ""
	if win.ID == sess.ActiveWindowID {
		flags += "*"
	} else if win.ID == sess.LastWindowID {
		flags += "-"
	}
	if win.Activity {
		flags += "#"
	}
	if win.Marked {
		flags += "M"
	}
	return flags
}

func (s *Server) dumpPane(win *session.Window, pane *session.Pane) dumpPane {
	dp := dumpPane{
		ID:     pane.ID,
		Active: pane.ID == win.ActivePaneID,
		Dead:   pane.Dead,
	}
	pty, ok := s.providePTY(pane.ID)
	if !ok {
		dp.Width, dp.Height = pane.Width, pane.Height
		return dp
	}
	scr := pty.Screen()
	snap := scr.Snap()
	dirty := scr.DirtyRows()

	dp.X, dp.Y = paneOrigin(win.Layout, pane.ID)
	dp.Width, dp.Height = snap.Cols, snap.Rows
	dp.CursorX, dp.CursorY = snap.CursorX, snap.CursorY
	dp.CursorVisible = snap.CursorVisible
	dp.CursorBlink = snap.CursorBlink
	dp.AltScreen = snap.AltScreen
	dp.Title = snap.Title
	dp.Revision = snap.Revision
	dp.DirtyRows = dirty

	dp.Text = make([]string, len(snap.Grid))
	dp.Attrs = make([][]dumpCellAttr, len(snap.Grid))
	for i, row := range snap.Grid {
		text, attrs := renderRow(row)
		dp.Text[i] = text
		dp.Attrs[i] = attrs
	}

	if state, inCopyMode := pane.CopyMode.(*copymode.State); inCopyMode {
		dp.CopyMode = true
		dp.Selection = selectionFromState(state)
	}
	return dp
}

func renderRow(cells []screen.Cell) (string, []dumpCellAttr) {
	var text []rune
	var attrs []dumpCellAttr
	for _, c := range cells {
		if c.Continuation {
			continue
		}
		ch := c.Ch
		if ch == 0 {
			ch = ' '
		}
		text = append(text, ch)
		attrs = append(attrs, cellAttrJSON(c))
	}
	return string(text), attrs
}

func cellAttrJSON(c screen.Cell) dumpCellAttr {
	return dumpCellAttr{
		Fg:        colorString(c.Attr.Fg),
		Bg:        colorString(c.Attr.Bg),
		Bold:      c.Attr.Bold,
		Italic:    c.Attr.Italic,
		Underline: c.Attr.Underline,
		Reverse:   c.Attr.Reverse,
		Blink:     c.Attr.Blink,
		Dim:       c.Attr.Dim,
		Hidden:    c.Attr.Hidden,
		Strike:    c.Attr.Strike,
	}
}

func colorString(c screen.Color) string {
	switch c.Kind {
	case screen.ColorIndexed:
		return fmt.Sprintf("colour%d", c.Index)
	case screen.ColorRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	default:
		return ""
	}
}

func selectionFromState(state *copymode.State) *dumpSelection {
	if state.Mode == copymode.SelectNone || state.Anchor == nil {
		return nil
	}
	mode := "char"
	switch state.Mode {
	case copymode.SelectLine:
		mode = "line"
	case copymode.SelectBlock:
		mode = "block"
	}
	return &dumpSelection{
		Mode:    mode,
		AnchorX: state.Anchor.X,
		AnchorY: state.Anchor.Y,
		CursorX: state.Cursor.X,
		CursorY: state.Cursor.Y,
	}
}

// statusOptions resolves every renderer-facing option at session scope
// (pane/window are intentionally absent: dump-state's options block is
// session-wide, per-pane/per-window overrides are read individually by
// whatever later renders an individual pane's border/status).
func (s *Server) statusOptions(sess *session.Session) map[string]string {
	out := make(map[string]string, len(statusOptionNames))
	for _, name := range statusOptionNames {
		def, ok := options.Lookup(name)
		if !ok {
			continue
		}
		r, err := options.LookupChain(name, nil, nil, sess.Opts, s.Manager.ServerOpts)
		if err != nil {
			continue
		}
		out[name] = options.Render(def, r)
	}
	return out
}

// paneOrigin looks up pane's rectangle in win's layout tree.
func paneOrigin(root *layout.Node, paneID int) (x, y int) {
	if leaf := layout.Find(root, paneID); leaf != nil {
		return leaf.X, leaf.Y
	}
	return 0, 0
}
