package options

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"psmux/internal/errs"
)

// entry is one locally-set option at a single scope level, tracking
// whether it was set as an array (so Unset/Show can distinguish
// `status-format[0]` entries from a scalar of the same base name).
type entry struct {
	scalar Value
	array  map[int]string
	isSet  bool
}

// Set holds the locally-overridden options at one scope level (one Set per
// server instance, per session, per window, or per pane). Create one with
// options.NewSet: a zero Set has a nil entries map and cannot be written to.
type Set struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewSet() *Set {
	return &Set{entries: map[string]*entry{}}
}

// SetScalar assigns name a non-array value, appending to the existing
// string when append is true (spec §4.E: "-a appends (strings
// concatenate, arrays push)").
func (s *Set) SetScalar(name string, v Value, def Definition, appendVal bool) error {
	if def.Type == TypeEnum {
		if err := def.validateEnum(v.Str); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrParse, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[name]
	if e == nil {
		e = &entry{}
		s.entries[name] = e
	}
	if appendVal && def.Type == TypeString && e.isSet {
		v.Str = e.scalar.Str + v.Str
	}
	e.scalar = v
	e.isSet = true
	return nil
}

// SetArrayIndex assigns one index of an array-typed option
// (`status-format[N]`), pushing when appendVal is true and index < 0
// (array "push" semantics).
func (s *Set) SetArrayIndex(name string, index int, value string, appendVal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[name]
	if e == nil {
		e = &entry{array: map[int]string{}}
		s.entries[name] = e
	}
	if e.array == nil {
		e.array = map[int]string{}
	}
	if appendVal && index < 0 {
		index = len(e.array)
	}
	e.array[index] = value
	e.isSet = true
}

// Unset removes name's local override, so lookup falls through to the
// next scope (spec §4.E: "-u removes the local override").
func (s *Set) Unset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}

// getLocal returns this Set's own override, if any.
func (s *Set) getLocal(name string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || !e.isSet {
		return nil, false
	}
	return e, true
}

// Resolved is the outcome of a scoped lookup: the value, which scope
// supplied it (ScopeServer when it came from the default), and whether it
// came from an explicit local override at all.
type Resolved struct {
	Value     Value
	Array     map[int]string
	FromScope Scope
	IsDefault bool
}

// LookupChain walks pane -> window -> session -> server -> default,
// skipping nil Sets, and returns the first local override found. Any
// nil-prefix subset of the chain may be omitted by callers operating above
// pane scope.
func LookupChain(name string, pane, window, session, server *Set) (Resolved, error) {
	def, ok := Lookup(name)
	if !ok {
		return Resolved{}, fmt.Errorf("unknown option %q: %w", name, errs.ErrNotFound)
	}
	chain := []struct {
		set   *Set
		scope Scope
	}{
		{pane, ScopePane},
		{window, ScopeWindow},
		{session, ScopeSession},
		{server, ScopeServer},
	}
	for _, c := range chain {
		if c.set == nil {
			continue
		}
		if e, ok := c.set.getLocal(name); ok {
			return Resolved{Value: e.scalar, Array: e.array, FromScope: c.scope}, nil
		}
	}
	return Resolved{Value: def.Default, FromScope: ScopeServer, IsDefault: true}, nil
}

// ParseValue coerces a raw set-option argument string to the Value shape
// definition.Type expects.
func ParseValue(def Definition, raw string) (Value, error) {
	switch def.Type {
	case TypeBool:
		b, err := parseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", errs.ErrParse, err)
		}
		return BoolValue(b), nil
	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid integer %q", errs.ErrParse, raw)
		}
		return IntValue(n), nil
	case TypeStatus:
		if n, err := strconv.Atoi(raw); err == nil {
			return IntValue(n), nil
		}
		b, err := parseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid status value %q", errs.ErrParse, raw)
		}
		if b {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	default:
		return StringValue(raw), nil
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

// Render formats a resolved value per set-option/show-options rules
// (spec §4.E): booleans render on/off, enums render their canonical
// lowercase, integers render decimal, status renders off/on for 0/1 and
// its number otherwise, strings
// with spaces or "#[" are double-quoted, arrays render "name[i] value"
// one per line.
func Render(def Definition, r Resolved) string {
	switch def.Type {
	case TypeBool:
		if r.Value.Bool {
			return "on"
		}
		return "off"
	case TypeStatus:
		switch r.Value.Int {
		case 0:
			return "off"
		case 1:
			return "on"
		default:
			return strconv.Itoa(r.Value.Int)
		}
	case TypeInt:
		return strconv.Itoa(r.Value.Int)
	case TypeEnum:
		return strings.ToLower(r.Value.Str)
	case TypeArray:
		return renderArray(def.Name, r.Array)
	default:
		return quoteIfNeeded(r.Value.Str)
	}
}

func renderArray(name string, arr map[int]string) string {
	if len(arr) == 0 {
		return ""
	}
	idxs := make([]int, 0, len(arr))
	for i := range arr {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	lines := make([]string, 0, len(idxs))
	for _, i := range idxs {
		lines = append(lines, fmt.Sprintf("%s[%d] %s", name, i, quoteIfNeeded(arr[i])))
	}
	return strings.Join(lines, "\n")
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t") || strings.Contains(s, "#[") {
		return strconv.Quote(s)
	}
	return s
}
