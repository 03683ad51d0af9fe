package screen

import "github.com/mattn/go-runewidth"

// ColorKind distinguishes how an Attr's foreground/background color is stored.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a terminal color in one of three forms: the default (unset),
// a 256-color palette index, or a 24-bit truecolor triple.
type Color struct {
	Kind  ColorKind
	Index uint8
	R, G, B uint8
}

// DefaultColor is the unset/default color.
var DefaultColor = Color{Kind: ColorDefault}

// Attr is the SGR attribute state applied to a cell.
type Attr struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Italic    bool
	Underline bool
	Reverse   bool
	Blink     bool
	Dim       bool
	Hidden    bool
	Strike    bool
}

// Cell is one grid position: a codepoint, its display width, and attributes.
// Width-2 cells occupy the starting column; the cell immediately to the right
// is a Continuation cell holding no codepoint of its own.
type Cell struct {
	Ch           rune
	Width        uint8
	Attr         Attr
	Continuation bool
}

// BlankCell is a single space cell carrying no attributes, used to clear rows.
func BlankCell() Cell {
	return Cell{Ch: ' ', Width: 1}
}

// RuneWidth classifies a rune's terminal display width (0, 1, or 2),
// matching wcwidth-style behavior including width-2 CJK handling.
// Screen writes stay per-rune (no grapheme clustering), per spec Non-goals.
func RuneWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	switch {
	case w <= 0:
		return 0
	case w == 1:
		return 1
	default:
		return 2
	}
}
