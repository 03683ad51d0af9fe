package copymode

import (
	"errors"
	"strings"
)

// ErrExit is returned by Command/Key when the pane should leave copy
// mode (q, Escape-with-no-selection is NOT exit per spec §4.H — only
// explicit cancel/copy commands and q are).
var ErrExit = errors.New("copy mode exit")

// Command dispatches one of send-keys -X's named copy-mode commands
// (spec §4.H). Unknown names are a no-op, matching tmux's behavior of
// ignoring -X commands that don't apply to the current mode.
func (s *State) Command(name string) error {
	n := s.takeCount()
	switch name {
	case "cursor-left":
		s.MoveLeft(n)
	case "cursor-right":
		s.MoveRight(n)
	case "cursor-up":
		s.MoveUp(n)
	case "cursor-down":
		s.MoveDown(n)
	case "start-of-line":
		s.MoveLineStart()
	case "back-to-indentation":
		s.MoveFirstNonBlank()
	case "end-of-line":
		s.MoveLineEnd()
	case "history-top":
		s.MoveTop()
	case "history-bottom":
		s.MoveBottom()
	case "next-word":
		s.WordForward(n, false)
	case "next-word-end":
		s.WordEnd(n, false)
	case "previous-word":
		s.WordBack(n, false)
	case "next-space":
		s.WordForward(n, true)
	case "previous-space":
		s.WordBack(n, true)
	case "halfpage-up":
		s.MoveHalfPageUp(n)
	case "halfpage-down":
		s.MoveHalfPage(n)
	case "page-up":
		s.MovePageUp(n)
	case "page-down":
		s.MovePage(n)
	case "begin-selection":
		s.BeginSelection(SelectChar)
	case "select-line":
		s.BeginSelection(SelectLine)
	case "rectangle-toggle":
		if s.Mode == SelectBlock {
			s.Mode = SelectChar
		} else {
			s.Mode = SelectBlock
		}
	case "other-end":
		s.SwapAnchor()
	case "clear-selection":
		s.ClearSelection()
	case "copy-selection", "copy-selection-and-cancel":
		s.Yank(0)
		if name == "copy-selection-and-cancel" {
			return ErrExit
		}
	case "copy-end-of-line", "copy-end-of-line-and-cancel":
		s.BeginSelection(SelectChar)
		s.MoveLineEnd()
		s.Yank(0)
		if name == "copy-end-of-line-and-cancel" {
			return ErrExit
		}
	case "search-again":
		s.NextMatch()
	case "search-reverse":
		s.PrevMatch()
	case "cancel":
		return ErrExit
	default:
		// copy-pipe-and-cancel/copy-pipe variants carry the pipe target as
		// a second -X argument that internal/command's sendCopyModeCommand
		// doesn't yet split out; treated as copy-selection-and-cancel's
		// yank-then-exit until that wiring lands.
		if strings.HasPrefix(name, "copy-pipe") {
			s.Yank(0)
			return ErrExit
		}
	}
	return nil
}

// Key feeds one raw vi/emacs keystroke forwarded by send-keys while the
// pane is in copy mode (spec §4.H's motion table). Returns ErrExit when
// the key ends copy mode (q, y, Enter, D).
func (s *State) Key(key string) error {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		s.Digit(key[0])
		return nil
	}
	n := s.takeCount()
	switch key {
	case "h", "Left":
		s.MoveLeft(n)
	case "l", "Right":
		s.MoveRight(n)
	case "k", "Up":
		s.MoveUp(n)
	case "j", "Down":
		s.MoveDown(n)
	case "w":
		s.WordForward(n, false)
	case "W":
		s.WordForward(n, true)
	case "b":
		s.WordBack(n, false)
	case "B":
		s.WordBack(n, true)
	case "e", "E":
		s.WordEnd(n, key == "E")
	case "^":
		s.MoveFirstNonBlank()
	case "$":
		s.MoveLineEnd()
	case "g":
		s.MoveTop()
	case "G":
		s.MoveBottom()
	case "H":
		s.MoveScreenPosition('H', 0, len(s.Rows))
	case "M":
		s.MoveScreenPosition('M', 0, len(s.Rows))
	case "L":
		s.MoveScreenPosition('L', 0, len(s.Rows))
	case "C-u":
		s.MoveHalfPageUp(n)
	case "C-d":
		s.MoveHalfPage(n)
	case "C-b", "PageUp":
		s.MovePageUp(n)
	case "C-f", "PageDown":
		s.MovePage(n)
	case " ", "v":
		s.BeginSelection(SelectChar)
	case "V":
		s.BeginSelection(SelectLine)
	case "C-v":
		s.BeginSelection(SelectBlock)
	case "o":
		s.SwapAnchor()
	case "Escape":
		s.ClearSelection()
	case "q":
		return ErrExit
	case "y", "Enter":
		s.Yank(0)
		return ErrExit
	case "D":
		s.BeginSelection(SelectChar)
		s.MoveLineEnd()
		s.Yank(0)
		return ErrExit
	case "n":
		s.NextMatch()
	case "N":
		s.PrevMatch()
	default:
		if strings.HasPrefix(key, `"`) && len(key) == 2 {
			s.Register = key[1]
		}
	}
	return nil
}
