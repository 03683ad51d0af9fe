package keytable

import (
	"fmt"
	"strings"

	"psmux/internal/errs"
)

// ParsedBind is the result of parsing a bind-key command line.
type ParsedBind struct {
	Table      string
	Repeatable bool
	Key        string
	Command    string
}

// ParseBindArgs parses "bind-key [-n|-T table] [-r] key command...". Flag
// scanning stops at the first token that is not -n/-r/-T (or -T's value);
// that token is the key, and everything after it -- including further
// "-"-prefixed tokens -- is preserved verbatim as the command (spec §4.G:
// "bind-key r split-window -h" must yield a binding whose command is
// literally "split-window -h" with the -h intact).
func ParseBindArgs(args []string) (ParsedBind, error) {
	table := "prefix"
	var repeatable bool
	i := 0
loop:
	for i < len(args) {
		switch args[i] {
		case "-n":
			table = "root"
			i++
		case "-r":
			repeatable = true
			i++
		case "-T":
			if i+1 >= len(args) {
				return ParsedBind{}, fmt.Errorf("-T requires a table name: %w", errs.ErrParse)
			}
			table = args[i+1]
			i += 2
		default:
			break loop
		}
	}
	if i >= len(args) {
		return ParsedBind{}, fmt.Errorf("bind-key requires a key: %w", errs.ErrParse)
	}
	key := args[i]
	i++
	command := strings.Join(args[i:], " ")
	if command == "" {
		return ParsedBind{}, fmt.Errorf("bind-key requires a command: %w", errs.ErrParse)
	}
	return ParsedBind{Table: table, Repeatable: repeatable, Key: key, Command: command}, nil
}

// ParsedUnbind is the result of parsing an unbind-key command line.
type ParsedUnbind struct {
	Table string
	Key   string
	All   bool
}

// ParseUnbindArgs parses "unbind-key [-n|-T table] [-a] key". -a removes
// every binding in the table rather than the single named key, in which
// case key is not required.
func ParseUnbindArgs(args []string) (ParsedUnbind, error) {
	table := "prefix"
	var all bool
	i := 0
loop:
	for i < len(args) {
		switch args[i] {
		case "-n":
			table = "root"
			i++
		case "-a":
			all = true
			i++
		case "-T":
			if i+1 >= len(args) {
				return ParsedUnbind{}, fmt.Errorf("-T requires a table name: %w", errs.ErrParse)
			}
			table = args[i+1]
			i += 2
		default:
			break loop
		}
	}
	if all && i >= len(args) {
		return ParsedUnbind{Table: table, All: true}, nil
	}
	if i >= len(args) {
		return ParsedUnbind{}, fmt.Errorf("unbind-key requires a key: %w", errs.ErrParse)
	}
	return ParsedUnbind{Table: table, Key: args[i], All: all}, nil
}
