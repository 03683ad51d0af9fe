package screen

// Resize changes the grid dimensions (spec §4.A Resize). When cols changes,
// rows are reflowed by joining wrapped logical lines and re-splitting them
// at the new width; when rows shrinks, excess top rows move into
// scrollback; when rows grows, scrollback rows (if any) come back in at
// the top and blank rows fill the remainder below the content.
// Alternate-screen resize rewrites blanks with no reflow.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols == s.cols && rows == s.rows {
		return
	}

	if s.modes.AltScreen {
		s.resizeAlt(cols, rows)
	} else {
		s.resizePrimary(cols, rows)
	}

	s.marginTop, s.marginBottom = 0, rows-1
	s.tabStops = defaultTabStops(cols)
	s.cols, s.rows = cols, rows
	s.cursorX = clampInt(s.cursorX, 0, cols-1)
	s.cursorY = clampInt(s.cursorY, 0, rows-1)
	for i := range s.grid {
		s.grid[i].Dirty = true
	}
	s.revision++
}

func (s *Screen) resizeAlt(cols, rows int) {
	newGrid := make([]Row, rows)
	for i := range newGrid {
		newGrid[i] = newRow(cols)
	}
	n := min(rows, len(s.grid))
	w := min(cols, s.cols)
	for y := 0; y < n; y++ {
		copy(newGrid[y].Cells[:w], s.grid[y].Cells[:w])
	}
	s.grid = newGrid
}

func (s *Screen) resizePrimary(cols, rows int) {
	logical := s.rejoinLogicalLines()

	cursorLogicalIdx, cursorLogicalCol := s.locateCursorInLogical(logical)

	var reflowed []Row
	var cursorNewRow, cursorNewCol int
	for idx, line := range logical {
		rowsFor := splitLogicalLine(line, cols)
		if idx == cursorLogicalIdx {
			cursorNewRow = len(reflowed) + min(cursorLogicalCol/cols, len(rowsFor)-1)
			cursorNewCol = cursorLogicalCol % cols
		}
		reflowed = append(reflowed, rowsFor...)
	}

	total := len(reflowed)
	if total <= rows {
		newGrid := make([]Row, rows)
		copy(newGrid, reflowed)
		for i := total; i < rows; i++ {
			newGrid[i] = newRow(cols)
		}
		s.scrollback = nil
		s.grid = newGrid
		s.cursorY = cursorNewRow
		s.cursorX = cursorNewCol
		return
	}

	// More reflowed rows than the new height: push the overflow (oldest
	// rows) into scrollback.
	overflow := total - rows
	s.scrollback = reflowed[:overflow]
	if s.historyLimit > 0 && len(s.scrollback) > s.historyLimit {
		s.scrollback = s.scrollback[len(s.scrollback)-s.historyLimit:]
	}
	s.grid = append([]Row(nil), reflowed[overflow:]...)
	s.cursorY = clampInt(cursorNewRow-overflow, 0, rows-1)
	s.cursorX = cursorNewCol
}

// rejoinLogicalLines concatenates scrollback+grid rows into logical lines,
// merging any row sequence joined by the Wrapped flag.
func (s *Screen) rejoinLogicalLines() []Row {
	all := make([]Row, 0, len(s.scrollback)+len(s.grid))
	all = append(all, s.scrollback...)
	all = append(all, s.grid...)

	var logical []Row
	var cur []Cell
	for i, row := range all {
		cur = append(cur, trimTrailingBlanks(row.Cells)...)
		if row.Wrapped && i != len(all)-1 {
			continue
		}
		logical = append(logical, Row{Cells: cur})
		cur = nil
	}
	if len(cur) > 0 {
		logical = append(logical, Row{Cells: cur})
	}
	return logical
}

func trimTrailingBlanks(cells []Cell) []Cell {
	end := len(cells)
	for end > 0 && cells[end-1].Ch == ' ' && !cells[end-1].Continuation && isBlankAttr(cells[end-1].Attr) {
		end--
	}
	return cells[:end]
}

func isBlankAttr(a Attr) bool {
	return a == Attr{}
}

// splitLogicalLine re-wraps one logical line at the given width, marking
// all but the last produced row as Wrapped.
func splitLogicalLine(line Row, cols int) []Row {
	if len(line.Cells) == 0 {
		return []Row{newRow(cols)}
	}
	var out []Row
	for start := 0; start < len(line.Cells); start += cols {
		end := min(start+cols, len(line.Cells))
		row := newRow(cols)
		copy(row.Cells, line.Cells[start:end])
		row.Wrapped = end < len(line.Cells)
		out = append(out, row)
	}
	return out
}

// locateCursorInLogical finds which logical line (by index into the
// rejoined slice) and column the live cursor falls on, so Resize can
// re-anchor it after reflow. Approximated against the live grid only: the
// cursor is always within s.grid, never scrollback.
func (s *Screen) locateCursorInLogical(logical []Row) (idx, col int) {
	// Count how many logical lines precede the grid's rows by replaying the
	// same join used to build `logical`, tracking how far into the grid we
	// are when we reach s.cursorY.
	gridStart := len(logical) - countLogicalLinesFor(s.grid)
	if gridStart < 0 {
		gridStart = 0
	}
	lineIdx := gridStart
	offsetInLine := 0
	for y := 0; y < s.cursorY && y < len(s.grid); y++ {
		offsetInLine += len(trimTrailingBlanks(s.grid[y].Cells))
		if !s.grid[y].Wrapped {
			lineIdx++
			offsetInLine = 0
		}
	}
	if lineIdx >= len(logical) {
		lineIdx = len(logical) - 1
	}
	if lineIdx < 0 {
		lineIdx = 0
	}
	return lineIdx, offsetInLine + s.cursorX
}

func countLogicalLinesFor(rows []Row) int {
	count := 0
	for i, row := range rows {
		if !row.Wrapped || i == len(rows)-1 {
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	return count
}
