package main

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeCString is the exact byte-level inverse of internal/server/conn.go's
// unescapeCString: every control byte, DEL, and non-ASCII byte is escaped as
// \xHH, plus the named escapes it recognizes (\n \r \t \e \0 \\ \"). Working
// byte-by-byte rather than rune-by-rune means a stdin read that lands mid
// multi-byte UTF-8 sequence still escapes cleanly; the server reconstructs
// the same bytes, so validity is preserved end to end.
func encodeCString(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) + 2)
	b.WriteByte('"')
	for _, c := range data {
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0x1b:
			b.WriteString(`\e`)
		case 0:
			b.WriteString(`\0`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			if c < 0x20 || c == 0x7f || c >= 0x80 {
				fmt.Fprintf(&b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// sgrFor builds the SGR escape sequence for one dump-state cell attribute,
// resetting first (0) so an attribute dropped between consecutive cells
// doesn't bleed from a prior run.
func sgrFor(a dumpCellAttr) string {
	codes := []string{"0"}
	if a.Bold {
		codes = append(codes, "1")
	}
	if a.Dim {
		codes = append(codes, "2")
	}
	if a.Italic {
		codes = append(codes, "3")
	}
	if a.Underline {
		codes = append(codes, "4")
	}
	if a.Blink {
		codes = append(codes, "5")
	}
	if a.Reverse {
		codes = append(codes, "7")
	}
	if a.Hidden {
		codes = append(codes, "8")
	}
	if a.Strike {
		codes = append(codes, "9")
	}
	if fg := colorCode(a.Fg, false); fg != "" {
		codes = append(codes, fg)
	}
	if bg := colorCode(a.Bg, true); bg != "" {
		codes = append(codes, bg)
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// colorCode turns a dump-state color string ("", "colourN", "#rrggbb") into
// the SGR parameter for foreground (bg=false) or background (bg=true).
func colorCode(s string, bg bool) string {
	base := "38"
	if bg {
		base = "48"
	}
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "colour"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "colour"))
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s;5;%d", base, n)
	case strings.HasPrefix(s, "#") && len(s) == 7:
		r, err1 := strconv.ParseUint(s[1:3], 16, 8)
		g, err2 := strconv.ParseUint(s[3:5], 16, 8)
		bl, err3 := strconv.ParseUint(s[5:7], 16, 8)
		if err1 != nil || err2 != nil || err3 != nil {
			return ""
		}
		return fmt.Sprintf("%s;2;%d;%d;%d", base, r, g, bl)
	default:
		return ""
	}
}
