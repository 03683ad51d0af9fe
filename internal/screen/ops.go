package screen

// clearWrap resets the pending-wrap latch; any cursor motion does this
// (spec §4.A wrap semantics).
func (s *Screen) clearWrap() {
	s.pendingWrap = false
}

func (s *Screen) curRow() *Row {
	return &s.grid[s.cursorY]
}

// moveCursor sets the cursor, clamped to the grid, and clears pending-wrap.
func (s *Screen) moveCursor(x, y int) {
	s.cursorX = clampInt(x, 0, s.cols-1)
	s.cursorY = clampInt(y, 0, s.rows-1)
	s.clearWrap()
}

func (s *Screen) originTop() int {
	if s.modes.OriginMode {
		return s.marginTop
	}
	return 0
}

func (s *Screen) originBottom() int {
	if s.modes.OriginMode {
		return s.marginBottom
	}
	return s.rows - 1
}

// cursorUp/Down/Forward/Back implement CUU/CUD/CUF/CUB.
func (s *Screen) cursorUp(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(s.cursorX, s.cursorY-n)
}

func (s *Screen) cursorDown(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(s.cursorX, s.cursorY+n)
}

func (s *Screen) cursorForward(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(s.cursorX+n, s.cursorY)
}

func (s *Screen) cursorBack(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(s.cursorX-n, s.cursorY)
}

func (s *Screen) cursorPosition(row, col int) {
	top := s.originTop()
	s.moveCursor(col-1, top+row-1)
}

func (s *Screen) cursorNextLine(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(0, s.cursorY+n)
}

func (s *Screen) cursorPrevLine(n int) {
	if n < 1 {
		n = 1
	}
	s.moveCursor(0, s.cursorY-n)
}

func (s *Screen) cursorHTab(n int) {
	if n < 1 {
		n = 1
	}
	x := s.cursorX
	for ; n > 0; n-- {
		x = s.nextTabStop(x)
	}
	s.moveCursor(x, s.cursorY)
}

func (s *Screen) cursorBackTab(n int) {
	if n < 1 {
		n = 1
	}
	x := s.cursorX
	for ; n > 0; n-- {
		x = s.prevTabStop(x)
	}
	s.moveCursor(x, s.cursorY)
}

func (s *Screen) nextTabStop(x int) int {
	for i := x + 1; i < s.cols; i++ {
		if s.tabStops[i] {
			return i
		}
	}
	return s.cols - 1
}

func (s *Screen) prevTabStop(x int) int {
	for i := x - 1; i >= 0; i-- {
		if s.tabStops[i] {
			return i
		}
	}
	return 0
}

func (s *Screen) saveCursor() {
	s.savedCursorX, s.savedCursorY = s.cursorX, s.cursorY
	s.savedAttr = s.attr
}

func (s *Screen) restoreCursor() {
	s.moveCursor(s.savedCursorX, s.savedCursorY)
	s.attr = s.savedAttr
}

// --- Erase ---

func (s *Screen) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseInLine(0)
		for y := s.cursorY + 1; y < s.rows; y++ {
			s.clearRow(y)
		}
	case 1:
		s.eraseInLine(1)
		for y := 0; y < s.cursorY; y++ {
			s.clearRow(y)
		}
	case 2, 3:
		for y := 0; y < s.rows; y++ {
			s.clearRow(y)
		}
	}
}

func (s *Screen) eraseInLine(mode int) {
	row := s.curRow()
	switch mode {
	case 0:
		for x := s.cursorX; x < s.cols; x++ {
			row.Cells[x] = BlankCell()
		}
	case 1:
		for x := 0; x <= s.cursorX && x < s.cols; x++ {
			row.Cells[x] = BlankCell()
		}
	case 2:
		for x := 0; x < s.cols; x++ {
			row.Cells[x] = BlankCell()
		}
	}
	s.bump(s.cursorY)
}

func (s *Screen) clearRow(y int) {
	if y < 0 || y >= s.rows {
		return
	}
	for x := 0; x < s.cols; x++ {
		s.grid[y].Cells[x] = BlankCell()
	}
	s.grid[y].Wrapped = false
	s.bump(y)
}

// --- Insert/Delete/Scroll ---

func (s *Screen) insertChars(n int) {
	if n < 1 {
		n = 1
	}
	row := s.curRow()
	x := s.cursorX
	if x >= s.cols {
		return
	}
	end := s.cols - n
	if end < x {
		end = x
	}
	copy(row.Cells[x+n:], row.Cells[x:end])
	for i := x; i < x+n && i < s.cols; i++ {
		row.Cells[i] = BlankCell()
	}
	s.bump(s.cursorY)
}

func (s *Screen) deleteChars(n int) {
	if n < 1 {
		n = 1
	}
	row := s.curRow()
	x := s.cursorX
	copy(row.Cells[x:], row.Cells[min(x+n, s.cols):])
	for i := max(s.cols-n, x); i < s.cols; i++ {
		row.Cells[i] = BlankCell()
	}
	s.bump(s.cursorY)
}

func (s *Screen) eraseChars(n int) {
	if n < 1 {
		n = 1
	}
	row := s.curRow()
	for i := s.cursorX; i < s.cursorX+n && i < s.cols; i++ {
		row.Cells[i] = BlankCell()
	}
	s.bump(s.cursorY)
}

func (s *Screen) insertLines(n int) {
	if n < 1 {
		n = 1
	}
	if s.cursorY < s.marginTop || s.cursorY > s.marginBottom {
		return
	}
	for i := 0; i < n; i++ {
		s.shiftDown(s.cursorY, s.marginBottom)
	}
}

func (s *Screen) deleteLines(n int) {
	if n < 1 {
		n = 1
	}
	if s.cursorY < s.marginTop || s.cursorY > s.marginBottom {
		return
	}
	for i := 0; i < n; i++ {
		s.shiftUp(s.cursorY, s.marginBottom)
	}
}

// shiftDown inserts a blank row at `at` within [at, bottom], dropping the
// bottom row of the region.
func (s *Screen) shiftDown(at, bottom int) {
	for y := bottom; y > at; y-- {
		s.grid[y] = s.grid[y-1]
		s.grid[y].Dirty = true
	}
	s.grid[at] = newRow(s.cols)
	for y := at; y <= bottom; y++ {
		s.bump(y)
	}
}

// shiftUp drops the row at `at` and pulls rows below it up within
// [at, bottom], inserting a blank row at bottom.
func (s *Screen) shiftUp(at, bottom int) {
	for y := at; y < bottom; y++ {
		s.grid[y] = s.grid[y+1]
		s.grid[y].Dirty = true
	}
	s.grid[bottom] = newRow(s.cols)
	for y := at; y <= bottom; y++ {
		s.bump(y)
	}
}

func (s *Screen) scrollUp(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.pushScrollback(s.grid[s.marginTop])
		s.shiftUp(s.marginTop, s.marginBottom)
	}
}

func (s *Screen) scrollDown(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.shiftDown(s.marginTop, s.marginBottom)
	}
}

// --- Printing ---

// Print writes one printable rune at the cursor, advancing it, and handles
// the pending-wrap latch and scroll-region advance (spec §4.A).
func (s *Screen) Print(r rune) {
	w := RuneWidth(r)
	if w == 0 {
		// Zero-width rune (combining mark or similar): dropped, and the
		// cursor does not advance. Per spec Non-goals, full grapheme
		// clustering onto the preceding cell is not attempted.
		return
	}

	if s.pendingWrap {
		s.wrapLine(true)
	}

	row := s.curRow()
	x := s.cursorX
	if x+w > s.cols {
		s.wrapLine(true)
		row = s.curRow()
		x = s.cursorX
	}

	if s.modes.Insert {
		copy(row.Cells[x+w:], row.Cells[x:max(s.cols-w, x)])
	}

	row.Cells[x] = Cell{Ch: r, Width: uint8(w), Attr: s.attr}
	for i := 1; i < w && x+i < s.cols; i++ {
		row.Cells[x+i] = Cell{Continuation: true, Width: 0}
	}
	s.bump(s.cursorY)

	if x+w >= s.cols {
		s.cursorX = s.cols - 1
		s.pendingWrap = true
	} else {
		s.cursorX = x + w
	}
}

// newlineWrap advances to column 0 of the next row, scrolling the margin
// region if the cursor is at its bottom. Used for NEL, which moves the
// cursor without marking a soft wrap.
func (s *Screen) newlineWrap() {
	s.wrapLine(false)
}

// wrapLine is newlineWrap's scrolling logic, plus an optional mark of the
// row being left as Wrapped. Print's pending-wrap latch passes soft=true so
// Resize's rejoinLogicalLines can later rejoin the line on widen; NEL is an
// explicit cursor motion and leaves Wrapped alone.
func (s *Screen) wrapLine(soft bool) {
	s.pendingWrap = false
	prevRow := s.cursorY
	if soft && prevRow < len(s.grid) {
		s.grid[prevRow].Wrapped = true
	}
	if s.cursorY >= s.marginBottom {
		s.scrollUp(1)
	} else {
		s.cursorY++
	}
	s.cursorX = 0
}

// LineFeed performs LF (\n): move down one row, scrolling if needed. Unlike
// newlineWrap it does not reset the column (tmux/xterm LF semantics).
func (s *Screen) LineFeed() {
	s.clearWrap()
	if s.cursorY >= s.marginBottom {
		s.scrollUp(1)
	} else {
		s.cursorY++
	}
}

// CarriageReturn performs CR (\r).
func (s *Screen) CarriageReturn() {
	s.cursorX = 0
	s.clearWrap()
}

// Backspace performs BS (\b).
func (s *Screen) Backspace() {
	if s.cursorX > 0 {
		s.cursorX--
	}
	s.clearWrap()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
