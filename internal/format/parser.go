package format

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTemplate splits a whole format string (e.g. "#[fg=red]#{session_name} #I")
// into a sequence of literal runs, "#"-shorthands, and "#{...}" expressions.
// Unlike the single-pass regex matcher this replaces, it tracks brace depth
// so a "#{...}" expression containing further "#{...}" expressions in its
// arguments parses correctly instead of stopping at the first "}".
func parseTemplate(s string) ([]node, error) {
	var out []node
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			out = append(out, literalNode{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); {
		c := s[i]
		if c != '#' {
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			lit.WriteByte(c)
			i++
			continue
		}
		switch s[i+1] {
		case '#':
			lit.WriteByte('#')
			i += 2
		case '{':
			end, err := matchBrace(s, i+1)
			if err != nil {
				return nil, err
			}
			flushLit()
			inner := s[i+2 : end]
			n, err := parseInner(inner)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			i = end + 1
		default:
			flushLit()
			out = append(out, shorthandNode{ch: s[i+1]})
			i += 2
		}
	}
	flushLit()
	return out, nil
}

// matchBrace returns the index of the "}" matching the "{" at s[open],
// accounting for nested "{...}" pairs.
func matchBrace(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated #{ expression in %q", s)
}

// parseInner dispatches on the content between "#{" and "}".
func parseInner(s string) (node, error) {
	switch {
	case strings.HasPrefix(s, "?"):
		return parseConditional(s[1:])
	case strings.HasPrefix(s, "==:"):
		a, b, err := splitPair(s[3:])
		return cmpNode{op: "==", a: a, b: b}, err
	case strings.HasPrefix(s, "!=:"):
		a, b, err := splitPair(s[3:])
		return cmpNode{op: "!=", a: a, b: b}, err
	case strings.HasPrefix(s, "||:"):
		a, b, err := splitPair(s[3:])
		return boolNode{op: "||", a: a, b: b}, err
	case strings.HasPrefix(s, "&&:"):
		a, b, err := splitPair(s[3:])
		return boolNode{op: "&&", a: a, b: b}, err
	case strings.HasPrefix(s, "e|"):
		return parseArith(s)
	case strings.HasPrefix(s, "W:"):
		return loopNode{kind: 'W', expr: s[2:]}, nil
	case strings.HasPrefix(s, "P:"):
		return loopNode{kind: 'P', expr: s[2:]}, nil
	case strings.HasPrefix(s, "S:"):
		return loopNode{kind: 'S', expr: s[2:]}, nil
	case strings.HasPrefix(s, "l:"):
		return literalTextNode{text: s[2:]}, nil
	case strings.HasPrefix(s, "m:"):
		pattern, value, err := splitPair(s[2:])
		return globNode{pattern: pattern, value: value}, err
	}
	if mods, base, ok := tryParseModifiers(s); ok {
		return modNode{mods: mods, base: base}, nil
	}
	return varNode{name: s}, nil
}

// parseConditional parses "cond,then[,else]" where cond may itself be an
// "a==b" or "a!=b" comparison, and commas nested inside "#{...}" in any of
// the three parts do not count as separators.
func parseConditional(s string) (node, error) {
	parts := splitTopLevel(s, ',', 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed conditional %q: need cond,then[,else]", s)
	}
	cond := parts[0]
	then := parts[1]
	var els string
	if len(parts) == 3 {
		els = parts[2]
	}
	return condNode{cond: cond, then: then, els: els}, nil
}

// parseArith parses "e|OP|:a,b".
func parseArith(s string) (node, error) {
	rest := s[2:] // after "e|"
	bar := strings.IndexByte(rest, '|')
	if bar < 1 {
		return nil, fmt.Errorf("malformed arithmetic expression %q", s)
	}
	op := rest[:bar]
	if len(op) != 1 || strings.IndexByte("+-*/m", op[0]) < 0 {
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
	tail := rest[bar+1:]
	if !strings.HasPrefix(tail, ":") {
		return nil, fmt.Errorf("malformed arithmetic expression %q", s)
	}
	a, b, err := splitPair(tail[1:])
	return arithNode{op: op[0], a: a, b: b}, err
}

// splitPair splits "a,b" at the top-level comma, the form used by
// comparison/boolean/arithmetic/glob-match reducers.
func splitPair(s string) (a, b string, err error) {
	parts := splitTopLevel(s, ',', 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected two comma-separated arguments, got %q", s)
	}
	return parts[0], parts[1], nil
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// "#{...}". maxParts <= 0 means unlimited; otherwise stops splitting once
// maxParts parts have been produced, putting the remainder in the last part.
func splitTopLevel(s string, sep byte, maxParts int) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 && (maxParts <= 0 || len(parts) < maxParts-1) {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// splitTopLevelOnce finds the first top-level occurrence of sep (a
// multi-byte operator like "==") in s and splits there.
func splitTopLevelOnce(s, sep string) (a, b string, ok bool) {
	depth := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		switch s[i] {
		case '{':
			depth++
			continue
		case '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			return s[:i], s[i+len(sep):], true
		}
	}
	return "", "", false
}

// tryParseModifiers recognizes a leading chain of text modifiers
// (truncate/pad/substitute/basename/dirname/width), separated by ";",
// terminated by the top-level ":" that introduces the base expression.
// Returns ok=false if s has no recognizable modifier prefix, meaning it
// should be treated as a plain variable reference.
func tryParseModifiers(s string) ([]modifier, string, bool) {
	colon := topLevelColon(s)
	if colon < 0 {
		return nil, "", false
	}
	spec := s[:colon]
	base := s[colon+1:]
	var mods []modifier
	for _, part := range strings.Split(spec, ";") {
		m, ok := parseOneModifier(part)
		if !ok {
			return nil, "", false
		}
		mods = append(mods, m)
	}
	if len(mods) == 0 {
		return nil, "", false
	}
	return mods, base, true
}

func topLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseOneModifier(s string) (modifier, bool) {
	switch {
	case strings.HasPrefix(s, "=-"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return modifier{}, false
		}
		return modifier{kind: modTruncate, n: n}, true
	case strings.HasPrefix(s, "="):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return modifier{}, false
		}
		return modifier{kind: modTruncate, n: n}, true
	case strings.HasPrefix(s, "p-"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return modifier{}, false
		}
		return modifier{kind: modPad, n: n}, true
	case strings.HasPrefix(s, "p"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return modifier{}, false
		}
		return modifier{kind: modPad, n: n}, true
	case strings.HasPrefix(s, "s/"):
		body := s[2:]
		g := false
		if strings.HasSuffix(body, "/g") {
			g = true
			body = body[:len(body)-2]
		} else if strings.HasSuffix(body, "/") {
			body = body[:len(body)-1]
		}
		fields := strings.SplitN(body, "/", 2)
		if len(fields) != 2 {
			return modifier{}, false
		}
		return modifier{kind: modSubst, from: fields[0], to: fields[1], global: g}, true
	case s == "b":
		return modifier{kind: modBasename}, true
	case s == "d":
		return modifier{kind: modDirname}, true
	case s == "w":
		return modifier{kind: modWidth}, true
	}
	return modifier{}, false
}
