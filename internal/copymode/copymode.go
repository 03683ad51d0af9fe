// Package copymode implements the per-pane modal overlay spec §4.H
// describes: a frozen snapshot of scrollback + visible grid, a cursor
// moving through it under vi-style (and emacs Ctrl-variant) motions,
// char/line/block selection, named registers, and incremental search.
//
// No teacher file has anything like this (the retrieved reference never
// implements a scrollback viewer), so State is built directly against
// spec §4.H, in the same small-struct-plus-methods shape internal/layout
// and internal/screen already use for their own state machines.
package copymode

import (
	"strings"

	"psmux/internal/screen"
)

// SelectionMode is the shape a copy-mode selection takes.
type SelectionMode int

const (
	SelectNone SelectionMode = iota
	SelectChar
	SelectLine
	SelectBlock
)

// Point is a cursor position inside the flattened row buffer; row 0 is
// the top of scrollback.
type Point struct {
	X, Y int
}

// YankFunc receives copied text for the given register ('"' is the
// default/unnamed register). Wired by internal/command to
// session.Manager.SetBuffer so copy mode never imports internal/session.
type YankFunc func(register byte, data []byte)

// State is one pane's copy-mode session.
type State struct {
	Rows [][]rune

	Cursor Point
	Anchor *Point
	Mode   SelectionMode

	Register     byte
	pendingCount int
	pendingReg   bool

	SearchTerm string
	SearchDir  int // +1 forward, -1 backward
	matches    []Point

	WordSeparators string

	yank YankFunc
}

// New snapshots scr's scrollback and visible grid into a flat row buffer
// and starts the cursor at the last line (the live bottom), the entry
// point spec §4.H describes ("captures ... into a flat row sequence").
func New(scr *screen.Screen, wordSeparators string, yank YankFunc) *State {
	hist := scr.ScrollbackLen()
	var rows [][]rune
	for i := 0; i < hist; i++ {
		if row, ok := scr.HistoryRow(i); ok {
			rows = append(rows, cellsToRunes(row.Cells))
		}
	}
	snap := scr.Snap()
	for _, row := range snap.Grid {
		rows = append(rows, cellsToRunes(row))
	}
	if len(rows) == 0 {
		rows = [][]rune{{}}
	}
	return &State{
		Rows:           rows,
		Cursor:         Point{X: 0, Y: len(rows) - 1},
		Register:       '"',
		WordSeparators: wordSeparators,
		yank:           yank,
	}
}

func cellsToRunes(cells []screen.Cell) []rune {
	out := make([]rune, 0, len(cells))
	for _, c := range cells {
		if c.Continuation {
			continue
		}
		if c.Ch == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Ch)
	}
	return out
}

func (s *State) lineLen(y int) int {
	if y < 0 || y >= len(s.Rows) {
		return 0
	}
	return len(s.Rows[y])
}

func (s *State) clampCursor() {
	if s.Cursor.Y < 0 {
		s.Cursor.Y = 0
	}
	if s.Cursor.Y >= len(s.Rows) {
		s.Cursor.Y = len(s.Rows) - 1
	}
	maxX := s.lineLen(s.Cursor.Y) - 1
	if maxX < 0 {
		maxX = 0
	}
	if s.Cursor.X > maxX {
		s.Cursor.X = maxX
	}
	if s.Cursor.X < 0 {
		s.Cursor.X = 0
	}
}

// takeCount consumes and resets the pending numeric prefix, defaulting
// to 1 (spec §4.H: "Numeric prefix multiplies motion count").
func (s *State) takeCount() int {
	n := s.pendingCount
	s.pendingCount = 0
	s.pendingReg = false
	if n <= 0 {
		return 1
	}
	return n
}

// Digit feeds one numeric-prefix digit; '0' with no pending count is
// the start-of-line motion instead (spec §4.H).
func (s *State) Digit(d byte) {
	if d == '0' && s.pendingCount == 0 {
		s.MoveToColumn(0)
		return
	}
	s.pendingCount = s.pendingCount*10 + int(d-'0')
}

func (s *State) MoveLeft(n int)  { s.Cursor.X -= n; s.clampCursor() }
func (s *State) MoveRight(n int) { s.Cursor.X += n; s.clampCursor() }
func (s *State) MoveUp(n int)    { s.Cursor.Y -= n; s.clampCursor() }
func (s *State) MoveDown(n int)  { s.Cursor.Y += n; s.clampCursor() }

func (s *State) MoveToColumn(x int) { s.Cursor.X = x; s.clampCursor() }

func (s *State) MoveLineStart()         { s.MoveToColumn(0) }
func (s *State) MoveFirstNonBlank()     { s.MoveToColumn(firstNonBlank(s.Rows[s.Cursor.Y])) }
func (s *State) MoveLineEnd()           { s.MoveToColumn(s.lineLen(s.Cursor.Y) - 1) }
func (s *State) MoveTop()               { s.Cursor = Point{X: 0, Y: 0} }
func (s *State) MoveBottom()            { s.Cursor = Point{X: 0, Y: len(s.Rows) - 1} }
func (s *State) MoveHalfPage(rows int)  { s.MoveDown(rows / 2) }
func (s *State) MoveHalfPageUp(rows int) { s.MoveUp(rows / 2) }
func (s *State) MovePage(rows int)      { s.MoveDown(rows) }
func (s *State) MovePageUp(rows int)    { s.MoveUp(rows) }

// MoveScreenPosition implements H/M/L: top/middle/bottom visible row of
// a viewport rows tall ending at the cursor's current screen.
func (s *State) MoveScreenPosition(which byte, viewTop, rows int) {
	switch which {
	case 'H':
		s.Cursor.Y = viewTop
	case 'M':
		s.Cursor.Y = viewTop + rows/2
	case 'L':
		s.Cursor.Y = viewTop + rows - 1
	}
	s.clampCursor()
}

func firstNonBlank(line []rune) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return 0
}

func (s *State) isSeparator(r rune) bool {
	if r == ' ' || r == '\t' {
		return true
	}
	return strings.ContainsRune(s.WordSeparators, r)
}

// WordForward/WordBack/WordEnd implement w/b/e; WORD variants (W/B/E)
// are the same but only whitespace separates words (spec §4.H: "WORD
// boundaries are runs of non-whitespace only").
func (s *State) WordForward(n int, bigWord bool) {
	for ; n > 0; n-- {
		s.stepWordForward(bigWord)
	}
}

func (s *State) stepWordForward(bigWord bool) {
	isSep := func(r rune) bool {
		if bigWord {
			return r == ' ' || r == '\t'
		}
		return s.isSeparator(r)
	}
	line := s.Rows[s.Cursor.Y]
	x := s.Cursor.X
	if x < len(line) {
		for x < len(line) && !isSep(line[x]) {
			x++
		}
	}
	for {
		for x < len(line) && isSep(line[x]) {
			x++
		}
		if x < len(line) {
			break
		}
		if s.Cursor.Y+1 >= len(s.Rows) {
			break
		}
		s.Cursor.Y++
		line = s.Rows[s.Cursor.Y]
		x = 0
		if len(line) == 0 {
			break
		}
	}
	s.Cursor.X = x
	s.clampCursor()
}

func (s *State) WordBack(n int, bigWord bool) {
	for ; n > 0; n-- {
		s.stepWordBack(bigWord)
	}
	s.clampCursor()
}

// stepWordBack implements one step of b/B: steps left past any
// separator run (wrapping to the previous row when one is exhausted),
// then back through word characters to land on the word's first
// character, the mirror of stepWordForward/stepWordEnd.
func (s *State) stepWordBack(bigWord bool) {
	isSep := func(r rune) bool {
		if bigWord {
			return r == ' ' || r == '\t'
		}
		return s.isSeparator(r)
	}
	line := s.Rows[s.Cursor.Y]
	x := s.Cursor.X - 1
	for {
		for x >= 0 && isSep(line[x]) {
			x--
		}
		if x >= 0 {
			break
		}
		if s.Cursor.Y == 0 {
			x = 0
			break
		}
		s.Cursor.Y--
		line = s.Rows[s.Cursor.Y]
		x = len(line) - 1
		if len(line) == 0 {
			x = 0
			break
		}
	}
	for x > 0 && !isSep(line[x-1]) {
		x--
	}
	s.Cursor.X = x
}

func (s *State) WordEnd(n int, bigWord bool) {
	for ; n > 0; n-- {
		s.stepWordEnd(bigWord)
	}
}

// stepWordEnd implements one step of e/E: always advances at least one
// column (so repeated e keeps moving), skips any separator run (wrapping
// to the next row the same way stepWordForward does), then lands on the
// last character of the word it finds rather than the separator after it.
func (s *State) stepWordEnd(bigWord bool) {
	isSep := func(r rune) bool {
		if bigWord {
			return r == ' ' || r == '\t'
		}
		return s.isSeparator(r)
	}
	line := s.Rows[s.Cursor.Y]
	x := s.Cursor.X + 1
	for {
		for x < len(line) && isSep(line[x]) {
			x++
		}
		if x < len(line) {
			break
		}
		if s.Cursor.Y+1 >= len(s.Rows) {
			x = len(line) - 1
			if x < 0 {
				x = 0
			}
			break
		}
		s.Cursor.Y++
		line = s.Rows[s.Cursor.Y]
		x = 0
	}
	for x+1 < len(line) && !isSep(line[x+1]) {
		x++
	}
	s.Cursor.X = x
	s.clampCursor()
}

// FindChar implements f/F: move to the next/previous occurrence of ch
// on the current line.
func (s *State) FindChar(ch rune, forward bool, n int) bool {
	line := s.Rows[s.Cursor.Y]
	x := s.Cursor.X
	for ; n > 0; n-- {
		found := -1
		if forward {
			for i := x + 1; i < len(line); i++ {
				if line[i] == ch {
					found = i
					break
				}
			}
		} else {
			for i := x - 1; i >= 0; i-- {
				if line[i] == ch {
					found = i
					break
				}
			}
		}
		if found < 0 {
			return false
		}
		x = found
	}
	s.Cursor.X = x
	return true
}

// BeginSelection starts char/line/block selection at the cursor.
func (s *State) BeginSelection(mode SelectionMode) {
	a := s.Cursor
	s.Anchor = &a
	s.Mode = mode
}

// ClearSelection drops the selection but stays in copy mode (Escape).
func (s *State) ClearSelection() {
	s.Anchor = nil
	s.Mode = SelectNone
}

// SwapAnchor exchanges cursor and selection anchor (o).
func (s *State) SwapAnchor() {
	if s.Anchor == nil {
		return
	}
	s.Cursor, *s.Anchor = *s.Anchor, s.Cursor
}

// Selected renders the text currently selected; with no selection active
// it returns the rest of the cursor's line from the cursor onward.
func (s *State) Selected() string {
	if s.Anchor == nil {
		return string(s.Rows[s.Cursor.Y][min(s.Cursor.X, len(s.Rows[s.Cursor.Y])):])
	}
	from, to := *s.Anchor, s.Cursor
	if to.Y < from.Y || (to.Y == from.Y && to.X < from.X) {
		from, to = to, from
	}
	switch s.Mode {
	case SelectLine:
		var b strings.Builder
		for y := from.Y; y <= to.Y; y++ {
			b.WriteString(string(s.Rows[y]))
			if y != to.Y {
				b.WriteByte('\n')
			}
		}
		return b.String()
	case SelectBlock:
		loX, hiX := from.X, to.X
		if loX > hiX {
			loX, hiX = hiX, loX
		}
		var b strings.Builder
		for y := from.Y; y <= to.Y; y++ {
			line := s.Rows[y]
			lo, hi := loX, hiX+1
			if lo > len(line) {
				lo = len(line)
			}
			if hi > len(line) {
				hi = len(line)
			}
			b.WriteString(string(line[lo:hi]))
			if y != to.Y {
				b.WriteByte('\n')
			}
		}
		return b.String()
	default:
		if from.Y == to.Y {
			end := to.X + 1
			if end > len(s.Rows[from.Y]) {
				end = len(s.Rows[from.Y])
			}
			return string(s.Rows[from.Y][from.X:end])
		}
		var b strings.Builder
		b.WriteString(string(s.Rows[from.Y][from.X:]))
		b.WriteByte('\n')
		for y := from.Y + 1; y < to.Y; y++ {
			b.WriteString(string(s.Rows[y]))
			b.WriteByte('\n')
		}
		end := to.X + 1
		if end > len(s.Rows[to.Y]) {
			end = len(s.Rows[to.Y])
		}
		b.WriteString(string(s.Rows[to.Y][:end]))
		return b.String()
	}
}

// Yank copies the current selection (or rest-of-line if none) into
// register and invokes the configured YankFunc.
func (s *State) Yank(register byte) {
	if register == 0 {
		register = s.Register
	}
	text := s.Selected()
	if s.yank != nil {
		s.yank(register, []byte(text))
	}
}

// SetSearch starts a forward (dir=+1) or backward (dir=-1) search and
// jumps to the first match (spec §4.H: "Searches are anchored to the
// rendered character grid").
func (s *State) SetSearch(term string, dir int) {
	s.SearchTerm = term
	s.SearchDir = dir
	s.matches = nil
	if term == "" {
		return
	}
	for y, line := range s.Rows {
		text := string(line)
		start := 0
		for {
			idx := strings.Index(text[start:], term)
			if idx < 0 {
				break
			}
			s.matches = append(s.matches, Point{X: start + idx, Y: y})
			start += idx + 1
			if start >= len(text) {
				break
			}
		}
	}
	s.NextMatch()
}

// NextMatch/PrevMatch implement n/N, traversing in (n) or against (N)
// the search direction.
func (s *State) NextMatch() bool { return s.stepMatch(s.SearchDir) }
func (s *State) PrevMatch() bool { return s.stepMatch(-s.SearchDir) }

func (s *State) stepMatch(dir int) bool {
	if len(s.matches) == 0 {
		return false
	}
	best := -1
	bestDist := 1 << 30
	for i, m := range s.matches {
		var dist int
		if dir >= 0 {
			dist = (m.Y-s.Cursor.Y)*1_000_000 + (m.X - s.Cursor.X)
			if dist <= 0 {
				dist += 1_000_000_000
			}
		} else {
			dist = (s.Cursor.Y-m.Y)*1_000_000 + (s.Cursor.X - m.X)
			if dist <= 0 {
				dist += 1_000_000_000
			}
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return false
	}
	s.Cursor = s.matches[best]
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
