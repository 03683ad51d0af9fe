// Package keytable implements the key-binding tables and dispatch state
// machine described in spec §4.G: named tables (prefix/root/copy-mode/
// copy-mode-vi and arbitrary user tables reachable via switch-client -T),
// bind-key/unbind-key storage, and the keystroke-to-action dispatch order
// (copy mode -> numeric prefix -> armed prefix -> prefix key -> root table
// -> forward to pane).
package keytable

import (
	"sort"
	"sync"
)

// Binding is one (key-spec, command) pair stored in a table.
type Binding struct {
	Key        string
	Repeatable bool
	Command    string
}

// Table holds the bindings for one named key table ("prefix", "root",
// "copy-mode", "copy-mode-vi", or a user-chosen name for switch-client -T).
type Table struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
}

func newTable() *Table {
	return &Table{bindings: map[string]*Binding{}}
}

func (t *Table) set(key string, b *Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[key] = b
}

func (t *Table) get(key string) (*Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[key]
	return b, ok
}

func (t *Table) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, key)
}

func (t *Table) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = map[string]*Binding{}
}

func (t *Table) list() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Registry owns every named table. The zero value is not usable; use
// NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewRegistry() *Registry {
	r := &Registry{tables: map[string]*Table{}}
	for _, name := range []string{"prefix", "root", "copy-mode", "copy-mode-vi"} {
		r.tables[name] = newTable()
	}
	return r
}

func (r *Registry) tableLocked(name string) *Table {
	t, ok := r.tables[name]
	if !ok {
		t = newTable()
		r.tables[name] = t
	}
	return t
}

// Bind stores key's binding in table, creating the table if it does not
// already exist (arbitrary user tables are created on first bind-key -T,
// per switch-client -T's ability to name one). Rebinding a key replaces
// the previous command.
func (r *Registry) Bind(table, key, command string, repeatable bool) {
	normalized := NormalizeKey(key)
	r.mu.Lock()
	t := r.tableLocked(table)
	r.mu.Unlock()
	t.set(normalized, &Binding{Key: normalized, Repeatable: repeatable, Command: command})
}

// Unbind removes key's binding from table, or every binding in table when
// all is true (unbind-key -a).
func (r *Registry) Unbind(table, key string, all bool) {
	r.mu.Lock()
	t, ok := r.tables[table]
	r.mu.Unlock()
	if !ok {
		return
	}
	if all {
		t.clear()
		return
	}
	t.delete(NormalizeKey(key))
}

// Lookup finds key's binding in table.
func (r *Registry) Lookup(table, key string) (Binding, bool) {
	r.mu.RLock()
	t, ok := r.tables[table]
	r.mu.RUnlock()
	if !ok {
		return Binding{}, false
	}
	b, ok := t.get(NormalizeKey(key))
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// ListKeys returns table's bindings sorted by key spec, for list-keys.
func (r *Registry) ListKeys(table string) []Binding {
	r.mu.RLock()
	t, ok := r.tables[table]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return t.list()
}

// TableNames returns every table currently known, sorted.
func (r *Registry) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tables))
	for name := range r.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
