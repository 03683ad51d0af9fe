package keytable

import (
	"sync"
	"time"
)

// Action classifies what a dispatched keystroke should do next.
type Action int

const (
	// ActionForward means no binding matched; Bytes is what the active
	// pane's pseudo-console should receive.
	ActionForward Action = iota
	// ActionExecute means a binding matched; Command is the stored
	// command sequence, to be run NumericPrefix times (or once if no
	// numeric prefix was accumulated).
	ActionExecute
	// ActionConsumed means the keystroke was absorbed into dispatch state
	// (arming the prefix, accumulating a digit, or a miss inside an
	// already-armed table) without producing pane output or a command.
	ActionConsumed
)

// Result is what Dispatcher.Dispatch resolves a keystroke to.
type Result struct {
	Action        Action
	Bytes         []byte
	Command       string
	NumericPrefix int
}

// Dispatcher implements the keystroke dispatch order of spec §4.G steps
// 2-7 (step 1, routing to copy mode, is the caller's responsibility: it
// knows the active pane's mode and should only reach Dispatch once it has
// decided the pane is not in copy mode).
type Dispatcher struct {
	mu sync.Mutex

	Registry   *Registry
	Prefix     string
	Prefix2    string
	RepeatTime time.Duration
	Now        func() time.Time

	armed         bool
	armedDeadline time.Time
	numericDigits string
	nextTable     string
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{Registry: reg, Prefix: "C-b", RepeatTime: 500 * time.Millisecond}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// SwitchClientTable makes the very next Dispatch call look the key up in
// table directly, bypassing prefix-arming and the root table -- the
// mechanism behind multi-chord user-table bindings (spec §4.G:
// "switch-client -T table replaces the next-key table for one dispatch").
func (d *Dispatcher) SwitchClientTable(table string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextTable = table
}

// Armed reports whether this dispatcher is currently waiting for the
// key following a prefix press, expiring the arm first if its repeat-time
// deadline has already passed. dump-state surfaces this as prefix-armed
// client state (spec §4.J), which is not itself an options.Known entry
// since it is per-connection runtime state, not a settable option.
func (d *Dispatcher) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed && d.now().After(d.armedDeadline) {
		d.armed = false
		d.numericDigits = ""
	}
	return d.armed
}

func isDigit(key string) bool {
	return len(key) == 1 && key[0] >= '0' && key[0] <= '9'
}

// Dispatch resolves one keystroke (already normalized via NormalizeKey, or
// in raw tmux key-spec notation) to an action.
func (d *Dispatcher) Dispatch(key string) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.armed && now.After(d.armedDeadline) {
		d.armed = false
		d.numericDigits = ""
	}

	if d.nextTable != "" {
		table := d.nextTable
		d.nextTable = ""
		if b, ok := d.Registry.Lookup(table, key); ok {
			return d.execute(b, 1, now)
		}
		return d.forward(key)
	}

	if d.armed {
		if isDigit(key) && (d.numericDigits != "" || key != "0") {
			d.numericDigits += key
			return Result{Action: ActionConsumed}
		}
		count := parseCount(d.numericDigits)
		d.numericDigits = ""
		d.armed = false
		if b, ok := d.Registry.Lookup("prefix", key); ok {
			return d.execute(b, count, now)
		}
		return Result{Action: ActionConsumed}
	}

	if key == d.Prefix || (d.Prefix2 != "" && key == d.Prefix2) {
		d.armed = true
		d.armedDeadline = now.Add(d.RepeatTime)
		return Result{Action: ActionConsumed}
	}

	if b, ok := d.Registry.Lookup("root", key); ok {
		return d.execute(b, 1, now)
	}

	return d.forward(key)
}

func (d *Dispatcher) execute(b Binding, count int, now time.Time) Result {
	if b.Repeatable {
		d.armed = true
		d.armedDeadline = now.Add(d.RepeatTime)
	}
	return Result{Action: ActionExecute, Command: b.Command, NumericPrefix: count}
}

func (d *Dispatcher) forward(key string) Result {
	bytes, err := TranslateKey(key)
	if err != nil {
		bytes = []byte(key)
	}
	return Result{Action: ActionForward, Bytes: bytes}
}

func parseCount(digits string) int {
	if digits == "" {
		return 1
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	if n == 0 {
		return 1
	}
	return n
}
