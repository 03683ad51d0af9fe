package screen

import "strings"

// dispatchCSI handles one complete CSI sequence ending in final byte b.
// private is '?' for DECSET/DECRST-style sequences (spec §4.A Modes).
func (s *Screen) dispatchCSI(b byte) {
	p := s.parse.private
	switch b {
	case 'A':
		s.cursorUp(s.param(0, 1))
	case 'B':
		s.cursorDown(s.param(0, 1))
	case 'C':
		s.cursorForward(s.param(0, 1))
	case 'D':
		s.cursorBack(s.param(0, 1))
	case 'E':
		s.cursorNextLine(s.param(0, 1))
	case 'F':
		s.cursorPrevLine(s.param(0, 1))
	case 'G':
		s.moveCursor(s.param(0, 1)-1, s.cursorY)
	case 'H', 'f':
		s.cursorPosition(s.param(0, 1), s.param(1, 1))
	case 'I':
		s.cursorHTab(s.param(0, 1))
	case 'Z':
		s.cursorBackTab(s.param(0, 1))
	case 'J':
		s.eraseInDisplay(s.param(0, 0))
	case 'K':
		s.eraseInLine(s.param(0, 0))
	case '@':
		s.insertChars(s.param(0, 1))
	case 'L':
		s.insertLines(s.param(0, 1))
	case 'M':
		s.deleteLines(s.param(0, 1))
	case 'P':
		s.deleteChars(s.param(0, 1))
	case 'X':
		s.eraseChars(s.param(0, 1))
	case 'S':
		s.scrollUp(s.param(0, 1))
	case 'T':
		s.scrollDown(s.param(0, 1))
	case 'r':
		s.setScrollRegion(s.param(0, 1), s.param(1, s.rows))
	case 's':
		if p == 0 {
			s.saveCursor()
		}
	case 'u':
		if p == 0 {
			s.restoreCursor()
		}
	case 'q':
		if len(s.parse.intermediates) == 1 && s.parse.intermediates[0] == ' ' {
			s.setCursorStyle(s.param(0, 1))
		}
	case 'm':
		s.handleSGR()
	case 'h':
		s.setMode(p, true)
	case 'l':
		s.setMode(p, false)
	case 'n':
		// device status report — spec treats reporting as out of scope for
		// the core emulator (no back-channel to the PTY writer here).
	}
}

// setCursorStyle implements DECSCUSR (CSI Ps SP q). Odd/even pairs select
// blink/steady variants of the same shape; Screen only models shape plus a
// separate blink mode (mode 12), matching the Cursor() accessor.
func (s *Screen) setCursorStyle(ps int) {
	switch ps {
	case 0, 1, 2:
		s.cursorStyle = CursorBlock
	case 3, 4:
		s.cursorStyle = CursorUnderline
	case 5, 6:
		s.cursorStyle = CursorBar
	}
	s.modes.CursorBlink = ps == 0 || ps%2 == 1
}

func (s *Screen) setScrollRegion(top, bottom int) {
	top = clampInt(top, 1, s.rows)
	bottom = clampInt(bottom, 1, s.rows)
	if top >= bottom {
		s.marginTop, s.marginBottom = 0, s.rows-1
		return
	}
	s.marginTop, s.marginBottom = top-1, bottom-1
	s.moveCursor(0, s.originTop())
}

// setMode implements SM/RM (private==0) and DECSET/DECRST (private=='?').
func (s *Screen) setMode(private byte, on bool) {
	if private != '?' {
		// ANSI SM/RM: only IRM (4) is meaningful here.
		if s.param(0, 0) == 4 {
			s.modes.Insert = on
		}
		return
	}
	for _, n := range s.parse.params {
		switch n {
		case 1:
			s.modes.CursorKeysApp = on
		case 7:
			s.modes.AutoWrap = on
		case 9:
			s.modes.MouseX10 = on
		case 12:
			s.modes.CursorBlink = on
		case 25:
			s.modes.CursorVisible = on
		case 6:
			s.modes.OriginMode = on
			s.moveCursor(0, s.originTop())
		case 47, 1047:
			s.setAltScreen(on, false)
		case 1049:
			s.setAltScreen(on, true)
		case 1000:
			s.modes.MouseVT200 = on
		case 1002:
			s.modes.MouseBtnEvent = on
		case 1006:
			s.modes.MouseSGR = on
		case 2004:
			s.modes.BracketedPaste = on
		}
	}
}

// setAltScreen switches between the primary and alternate grid. withCursor
// additionally saves/restores the cursor, matching CSI ?1049h/l vs ?47h/l.
func (s *Screen) setAltScreen(on, withCursor bool) {
	if on == s.modes.AltScreen {
		return
	}
	if on {
		if withCursor {
			s.altSavedCursorX, s.altSavedCursorY = s.cursorX, s.cursorY
		}
		s.altGrid = s.grid
		s.grid = make([]Row, s.rows)
		for i := range s.grid {
			s.grid[i] = newRow(s.cols)
		}
		s.modes.AltScreen = true
		s.moveCursor(0, 0)
	} else {
		if s.altGrid != nil {
			s.grid = s.altGrid
			s.altGrid = nil
		}
		s.modes.AltScreen = false
		if withCursor {
			s.moveCursor(s.altSavedCursorX, s.altSavedCursorY)
		}
	}
	for i := range s.grid {
		s.grid[i].Dirty = true
	}
	s.revision++
}

// softReset implements DECSTR / RIS: restore default modes and margins
// without discarding the grid contents.
func (s *Screen) softReset() {
	s.modes = Modes{AutoWrap: true, CursorVisible: true}
	s.marginTop, s.marginBottom = 0, s.rows-1
	s.attr = Attr{}
	s.pendingWrap = false
	s.tabStops = defaultTabStops(s.cols)
}

// decaln implements DECALN: fill the screen with 'E' for alignment testing.
func (s *Screen) decaln() {
	for y := 0; y < s.rows; y++ {
		for x := 0; x < s.cols; x++ {
			s.grid[y].Cells[x] = Cell{Ch: 'E', Width: 1}
		}
		s.bump(y)
	}
}

func (s *Screen) handleSGR() {
	params := s.parse.params
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		n := params[i]
		switch {
		case n == 0:
			s.attr = Attr{}
		case n == 1:
			s.attr.Bold = true
		case n == 2:
			s.attr.Dim = true
		case n == 3:
			s.attr.Italic = true
		case n == 4:
			s.attr.Underline = true
		case n == 5:
			s.attr.Blink = true
		case n == 7:
			s.attr.Reverse = true
		case n == 8:
			s.attr.Hidden = true
		case n == 9:
			s.attr.Strike = true
		case n == 22:
			s.attr.Bold, s.attr.Dim = false, false
		case n == 23:
			s.attr.Italic = false
		case n == 24:
			s.attr.Underline = false
		case n == 25:
			s.attr.Blink = false
		case n == 27:
			s.attr.Reverse = false
		case n == 28:
			s.attr.Hidden = false
		case n == 29:
			s.attr.Strike = false
		case n >= 30 && n <= 37:
			s.attr.Fg = Color{Kind: ColorIndexed, Index: uint8(n - 30)}
		case n == 38:
			consumed := s.consumeExtendedColor(params, i+1, &s.attr.Fg)
			i += consumed
		case n == 39:
			s.attr.Fg = DefaultColor
		case n >= 40 && n <= 47:
			s.attr.Bg = Color{Kind: ColorIndexed, Index: uint8(n - 40)}
		case n == 48:
			consumed := s.consumeExtendedColor(params, i+1, &s.attr.Bg)
			i += consumed
		case n == 49:
			s.attr.Bg = DefaultColor
		case n >= 90 && n <= 97:
			s.attr.Fg = Color{Kind: ColorIndexed, Index: uint8(n - 90 + 8)}
		case n >= 100 && n <= 107:
			s.attr.Bg = Color{Kind: ColorIndexed, Index: uint8(n - 100 + 8)}
		}
	}
}

// consumeExtendedColor parses the "38;5;n" / "38;2;r;g;b" forms starting at
// params[from], writing into out. Returns how many extra params were
// consumed beyond the selector itself.
func (s *Screen) consumeExtendedColor(params []int, from int, out *Color) int {
	if from >= len(params) {
		return 0
	}
	switch params[from] {
	case 5:
		if from+1 < len(params) {
			*out = Color{Kind: ColorIndexed, Index: uint8(params[from+1])}
			return 2
		}
		return 1
	case 2:
		if from+3 < len(params) {
			*out = Color{Kind: ColorRGB, R: uint8(params[from+1]), G: uint8(params[from+2]), B: uint8(params[from+3])}
			return 4
		}
		return 1
	}
	return 1
}

// dispatchOSC handles one complete OSC payload (without the ESC ] prefix or
// BEL/ST terminator).
func (s *Screen) dispatchOSC(payload string) {
	code, rest, ok := strings.Cut(payload, ";")
	if !ok {
		return
	}
	switch code {
	case "0", "2":
		s.title = rest
		s.revision++
	case "52":
		_, data, ok := strings.Cut(rest, ";")
		if ok && s.SetClipboard != nil {
			s.SetClipboard(data)
		}
	case "8":
		// hyperlink: attribute-only, not modeled on Cell; accepted and ignored.
	case "112":
		// reset cursor color: no-op, Screen has no cursor color field.
	}
}
