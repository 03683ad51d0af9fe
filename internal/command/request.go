// Package command implements the tmux-strict argv dispatcher (spec §4.I):
// flag parsing, -t target resolution, and the ≈150-command table that
// turns a parsed argv into session/window/pane/option/buffer mutations.
//
// Generalizes cmd/tmux-shim's argv-to-ipc.TmuxRequest parser (flagKind,
// commandSpec, combined-bool-flag expansion) into a standalone package
// whose output drives internal/session/internal/options/internal/layout
// directly, rather than a JSON RPC envelope.
package command

import "fmt"

// Request is one parsed command invocation: the resolved command name,
// its flags (bool presence or string/int value), and trailing positional
// arguments.
type Request struct {
	Name  string
	Bools map[string]bool
	Strs  map[string]string
	Ints  map[string]int
	Envs  map[string]string
	Args  []string
}

func newRequest(name string) Request {
	return Request{
		Name:  name,
		Bools: map[string]bool{},
		Strs:  map[string]string{},
		Ints:  map[string]int{},
		Envs:  map[string]string{},
	}
}

func (r Request) str(flag, def string) string {
	if v, ok := r.Strs[flag]; ok {
		return v
	}
	return def
}

func (r Request) intFlag(flag string, def int) int {
	if v, ok := r.Ints[flag]; ok {
		return v
	}
	return def
}

// Result is a command's outcome: text to print (stdout/-p output), and
// the exit code to report (0 success, 1 error per spec §4.I).
type Result struct {
	Output   string
	ExitCode int
}

func ok(output string) Result  { return Result{Output: output, ExitCode: 0} }
func fail(err error) (Result, error) { return Result{ExitCode: 1}, err }

func errorf(format string, args ...any) error { return fmt.Errorf(format, args...) }
