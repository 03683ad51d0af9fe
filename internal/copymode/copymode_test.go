package copymode

import (
	"errors"
	"testing"
)

func newState(rows ...string) *State {
	var grid [][]rune
	for _, r := range rows {
		grid = append(grid, []rune(r))
	}
	if len(grid) == 0 {
		grid = [][]rune{{}}
	}
	return &State{
		Rows:     grid,
		Register: '"',
	}
}

func TestMotionsBasicCursor(t *testing.T) {
	s := newState("hello world", "second line")
	s.Cursor = Point{X: 0, Y: 0}

	s.MoveRight(4)
	if s.Cursor.X != 4 {
		t.Fatalf("MoveRight: got x=%d", s.Cursor.X)
	}
	s.MoveLeft(2)
	if s.Cursor.X != 2 {
		t.Fatalf("MoveLeft: got x=%d", s.Cursor.X)
	}
	s.MoveDown(1)
	if s.Cursor.Y != 1 {
		t.Fatalf("MoveDown: got y=%d", s.Cursor.Y)
	}
	s.MoveUp(1)
	if s.Cursor.Y != 0 {
		t.Fatalf("MoveUp: got y=%d", s.Cursor.Y)
	}
}

func TestCursorClampsToLineAndRowBounds(t *testing.T) {
	s := newState("ab", "longer line here")
	s.Cursor = Point{X: 0, Y: 0}

	s.MoveRight(100)
	if s.Cursor.X != 1 {
		t.Fatalf("expected clamp to last column (len-1)=1, got %d", s.Cursor.X)
	}

	s.MoveUp(100)
	if s.Cursor.Y != 0 {
		t.Fatalf("expected clamp to row 0, got %d", s.Cursor.Y)
	}

	s.MoveDown(100)
	if s.Cursor.Y != len(s.Rows)-1 {
		t.Fatalf("expected clamp to last row, got %d", s.Cursor.Y)
	}
}

func TestMoveLineStartEndAndFirstNonBlank(t *testing.T) {
	s := newState("   indented text")
	s.Cursor = Point{X: 10, Y: 0}

	s.MoveLineStart()
	if s.Cursor.X != 0 {
		t.Fatalf("MoveLineStart: got %d", s.Cursor.X)
	}

	s.MoveFirstNonBlank()
	if s.Cursor.X != 3 {
		t.Fatalf("MoveFirstNonBlank: got %d, want 3", s.Cursor.X)
	}

	s.MoveLineEnd()
	if s.Cursor.X != len(s.Rows[0])-1 {
		t.Fatalf("MoveLineEnd: got %d, want %d", s.Cursor.X, len(s.Rows[0])-1)
	}
}

func TestMoveTopAndBottom(t *testing.T) {
	s := newState("one", "two", "three")
	s.Cursor = Point{X: 1, Y: 1}

	s.MoveTop()
	if s.Cursor != (Point{X: 0, Y: 0}) {
		t.Fatalf("MoveTop: got %+v", s.Cursor)
	}

	s.MoveBottom()
	if s.Cursor != (Point{X: 0, Y: 2}) {
		t.Fatalf("MoveBottom: got %+v", s.Cursor)
	}
}

func TestDigitBuildsNumericPrefixAndZeroMovesToLineStart(t *testing.T) {
	s := newState("0123456789")
	s.Cursor = Point{X: 5, Y: 0}

	s.Digit('0')
	if s.Cursor.X != 0 {
		t.Fatalf("bare 0 should move to line start, got x=%d", s.Cursor.X)
	}

	s.Digit('1')
	s.Digit('2')
	if s.pendingCount != 12 {
		t.Fatalf("expected pending count 12, got %d", s.pendingCount)
	}
	n := s.takeCount()
	if n != 12 {
		t.Fatalf("takeCount: got %d, want 12", n)
	}
	if s.pendingCount != 0 {
		t.Fatalf("takeCount should reset pendingCount, got %d", s.pendingCount)
	}
}

func TestWordForwardSkipsWordsAndWraps(t *testing.T) {
	s := newState("foo bar", "baz")
	s.Cursor = Point{X: 0, Y: 0}

	s.WordForward(1, false)
	if s.Cursor != (Point{X: 4, Y: 0}) {
		t.Fatalf("expected cursor at start of bar (x=4), got %+v", s.Cursor)
	}

	s.WordForward(1, false)
	if s.Cursor.Y != 1 || s.Cursor.X != 0 {
		t.Fatalf("expected word-forward to wrap to next row, got %+v", s.Cursor)
	}
}

func TestWordForwardWORDVariantTreatsPunctuationAsWordChar(t *testing.T) {
	// word-separators' compiled-in default (" -@\"'") includes '-', so a
	// small-word motion stops at the hyphen while the WORD variant (which
	// only recognizes whitespace) skips straight past it.
	s := newState("foo-bar baz")
	s.WordSeparators = ` -@"'`
	s.Cursor = Point{X: 0, Y: 0}

	s.WordForward(1, false)
	if s.Cursor.X != 4 {
		t.Fatalf("lowercase w should stop at hyphen boundary, got x=%d", s.Cursor.X)
	}

	s = newState("foo-bar baz")
	s.WordSeparators = ` -@"'`
	s.Cursor = Point{X: 0, Y: 0}
	s.WordForward(1, true)
	if s.Cursor.X != 8 {
		t.Fatalf("WORD variant should skip over hyphen to next whitespace run, got x=%d", s.Cursor.X)
	}
}

func TestWordBackMovesToPreviousWordStart(t *testing.T) {
	s := newState("foo bar baz")
	s.Cursor = Point{X: 8, Y: 0}

	s.WordBack(1, false)
	if s.Cursor.X != 4 {
		t.Fatalf("expected word-back to land on start of bar (x=4), got x=%d", s.Cursor.X)
	}

	s.WordBack(1, false)
	if s.Cursor.X != 0 {
		t.Fatalf("expected word-back to land on start of foo (x=0), got x=%d", s.Cursor.X)
	}
}

func TestWordEndMovesToEndOfCurrentOrNextWord(t *testing.T) {
	s := newState("foo bar")
	s.Cursor = Point{X: 0, Y: 0}

	s.WordEnd(1, false)
	if s.Cursor.X != 2 {
		t.Fatalf("expected cursor at end of foo (x=2), got %d", s.Cursor.X)
	}

	s.WordEnd(1, false)
	if s.Cursor.X != 6 {
		t.Fatalf("expected cursor at end of bar (x=6), got %d", s.Cursor.X)
	}
}

func TestFindChar(t *testing.T) {
	s := newState("a.b.c.d")
	s.Cursor = Point{X: 0, Y: 0}

	if !s.FindChar('.', true, 1) {
		t.Fatalf("expected forward find to succeed")
	}
	if s.Cursor.X != 1 {
		t.Fatalf("got x=%d, want 1", s.Cursor.X)
	}

	if !s.FindChar('.', true, 2) {
		t.Fatalf("expected forward find count=2 to succeed")
	}
	if s.Cursor.X != 5 {
		t.Fatalf("got x=%d, want 5", s.Cursor.X)
	}

	if !s.FindChar('.', false, 1) {
		t.Fatalf("expected backward find to succeed")
	}
	if s.Cursor.X != 3 {
		t.Fatalf("got x=%d, want 3", s.Cursor.X)
	}

	if s.FindChar('z', true, 1) {
		t.Fatalf("expected find for missing char to fail")
	}
}

func TestSelectedCharModeSingleLine(t *testing.T) {
	s := newState("hello world")
	s.Cursor = Point{X: 0, Y: 0}
	s.BeginSelection(SelectChar)
	s.Cursor.X = 4

	got := s.Selected()
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestSelectedCharModeMultiLine(t *testing.T) {
	s := newState("first", "second", "third")
	s.Cursor = Point{X: 2, Y: 0}
	s.BeginSelection(SelectChar)
	s.Cursor = Point{X: 1, Y: 2}

	got := s.Selected()
	want := "rst\nsecond\nth"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectedLineMode(t *testing.T) {
	s := newState("first", "second", "third")
	s.Cursor = Point{X: 0, Y: 0}
	s.BeginSelection(SelectLine)
	s.Cursor = Point{X: 4, Y: 1}

	got := s.Selected()
	want := "first\nsecond"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectedBlockMode(t *testing.T) {
	s := newState("abcdef", "ghijkl", "mnopqr")
	s.Cursor = Point{X: 1, Y: 0}
	s.BeginSelection(SelectBlock)
	s.Cursor = Point{X: 3, Y: 2}

	got := s.Selected()
	want := "bcd\nhij\nnop"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectedHandlesReversedAnchorOrder(t *testing.T) {
	s := newState("hello world")
	s.Cursor = Point{X: 4, Y: 0}
	s.BeginSelection(SelectChar)
	s.Cursor.X = 0

	got := s.Selected()
	if got != "hello" {
		t.Fatalf("got %q, expected selection to normalize regardless of anchor/cursor order", got)
	}
}

func TestYankInvokesCallbackWithSelection(t *testing.T) {
	var gotReg byte
	var gotData []byte
	s := newState("hello world")
	s.yank = func(register byte, data []byte) {
		gotReg = register
		gotData = data
	}
	s.Cursor = Point{X: 0, Y: 0}
	s.BeginSelection(SelectChar)
	s.Cursor.X = 4

	s.Yank(0)
	if gotReg != '"' {
		t.Fatalf("expected default register, got %q", gotReg)
	}
	if string(gotData) != "hello" {
		t.Fatalf("got %q", gotData)
	}
}

func TestYankUsesExplicitRegister(t *testing.T) {
	var gotReg byte
	s := newState("text")
	s.yank = func(register byte, data []byte) { gotReg = register }
	s.Yank('a')
	if gotReg != 'a' {
		t.Fatalf("expected explicit register a, got %q", gotReg)
	}
}

func TestSearchForwardFindsNearestMatchAndSteps(t *testing.T) {
	s := newState("foo bar foo baz foo")
	s.Cursor = Point{X: 0, Y: 0}

	s.SetSearch("foo", 1)
	if s.Cursor.X != 8 {
		t.Fatalf("expected search to land on first match after cursor (x=8), got %d", s.Cursor.X)
	}

	if !s.NextMatch() {
		t.Fatalf("expected NextMatch to succeed")
	}
	if s.Cursor.X != 16 {
		t.Fatalf("expected NextMatch to advance to x=16, got %d", s.Cursor.X)
	}

	if !s.PrevMatch() {
		t.Fatalf("expected PrevMatch to succeed")
	}
	if s.Cursor.X != 8 {
		t.Fatalf("expected PrevMatch to step back to x=8, got %d", s.Cursor.X)
	}
}

func TestSearchNoMatchesReturnsFalse(t *testing.T) {
	s := newState("nothing to find here")
	s.SetSearch("zzz", 1)
	if s.NextMatch() {
		t.Fatalf("expected NextMatch to fail with no matches")
	}
}

func TestCommandCancelReturnsErrExit(t *testing.T) {
	s := newState("text")
	err := s.Command("cancel")
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestCommandCopySelectionAndCancelYanksThenExits(t *testing.T) {
	var got string
	s := newState("hello world")
	s.yank = func(register byte, data []byte) { got = string(data) }
	s.Cursor = Point{X: 0, Y: 0}
	s.BeginSelection(SelectChar)
	s.Cursor.X = 4

	err := s.Command("copy-selection-and-cancel")
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected yanked selection %q, got %q", "hello", got)
	}
}

func TestCommandUnknownIsNoOp(t *testing.T) {
	s := newState("text")
	s.Cursor = Point{X: 0, Y: 0}
	if err := s.Command("not-a-real-command"); err != nil {
		t.Fatalf("expected unknown command to be a no-op, got err %v", err)
	}
	if s.Cursor != (Point{X: 0, Y: 0}) {
		t.Fatalf("expected cursor unchanged, got %+v", s.Cursor)
	}
}

func TestKeyQReturnsErrExit(t *testing.T) {
	s := newState("text")
	if err := s.Key("q"); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestKeyDigitsAccumulateNumericPrefix(t *testing.T) {
	s := newState("0123456789")
	s.Cursor = Point{X: 0, Y: 0}
	s.Key("3")
	if err := s.Key("l"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Cursor.X != 3 {
		t.Fatalf("expected numeric prefix 3 applied to l motion, got x=%d", s.Cursor.X)
	}
}

func TestKeyVBeginsCharSelection(t *testing.T) {
	s := newState("text")
	if err := s.Key("v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != SelectChar || s.Anchor == nil {
		t.Fatalf("expected char selection started, got mode=%v anchor=%v", s.Mode, s.Anchor)
	}
}

func TestKeyRegisterSelection(t *testing.T) {
	s := newState("text")
	if err := s.Key(`"a`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Register != 'a' {
		t.Fatalf("expected register set to a, got %q", s.Register)
	}
}
