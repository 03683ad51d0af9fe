package command

// flagKind classifies how a flag consumes argv tokens under tmux-strict
// getopt (spec §4.I): value flags always take the next token, bool flags
// never do, env flags take a KEY=VALUE token.
type flagKind int

const (
	flagBool flagKind = iota
	flagString
	flagInt
	flagEnv
)

type commandSpec struct {
	flags map[string]flagKind
}

// valueFlags/boolFlags are the spec-wide flag classes (spec §4.I): a flag
// keeps the same kind in every command that accepts it.
var (
	valueFlags = map[string]flagKind{
		"-s": flagString,
		"-t": flagString,
		"-c": flagString,
		"-F": flagString,
		"-n": flagString,
		"-x": flagInt,
		"-y": flagInt,
		"-L": flagString,
		"-T": flagString,
		"-X": flagString,
	}
	boolFlags = map[string]flagKind{
		"-d": flagBool,
		"-h": flagBool,
		"-v": flagBool,
		"-a": flagBool,
		"-P": flagBool,
		"-Z": flagBool,
		"-r": flagBool,
		"-R": flagBool,
		"-u": flagBool,
		"-g": flagBool,
		"-w": flagBool,
		"-p": flagBool,
		"-J": flagBool,
	}
)

func spec(extra map[string]flagKind) commandSpec {
	flags := make(map[string]flagKind, len(valueFlags)+len(boolFlags)+len(extra))
	for k, v := range valueFlags {
		flags[k] = v
	}
	for k, v := range boolFlags {
		flags[k] = v
	}
	for k, v := range extra {
		flags[k] = v
	}
	return commandSpec{flags: flags}
}

// commandSpecs lists every command's accepted flags, beyond the spec-wide
// value/bool flag classes. Every command in handlers has an entry; a
// command with no entry here is rejected by Parse as unknown. A command
// with genuinely special flags (e.g. "-U"/"-D"/"-L"/"-R" four-way
// direction on resize-pane/select-pane, "-D"/"-U" on rotate-window,
// "-S"/"-E" ranges on capture-pane, "-b" on paste-buffer) adds them to
// the base spec() set in its entry.
var commandSpecs = map[string]commandSpec{
	"new-session":     spec(map[string]flagKind{"-e": flagEnv}),
	"attach-session":  spec(nil),
	"detach-client":   spec(nil),
	"has-session":     spec(nil),
	"kill-session":    spec(map[string]flagKind{"-a": flagBool}),
	"kill-server":     spec(nil),
	"list-sessions":   spec(nil),
	"rename-session":  spec(nil),
	"switch-client":   spec(map[string]flagKind{"-l": flagBool}),
	"find-window":      spec(nil),

	"new-window":       spec(map[string]flagKind{"-e": flagEnv, "-k": flagBool}),
	"kill-window":      spec(map[string]flagKind{"-a": flagBool}),
	"rename-window":    spec(nil),
	"list-windows":     spec(nil),
	"select-window":    spec(map[string]flagKind{"-l": flagBool, "-n": flagBool, "-p": flagBool}),
	"next-window":      spec(nil),
	"previous-window":  spec(nil),
	"last-window":      spec(nil),
	"move-window":      spec(map[string]flagKind{"-d": flagBool}),
	"swap-window":      spec(map[string]flagKind{"-d": flagBool}),

	"split-window": spec(map[string]flagKind{"-e": flagEnv, "-l": flagString}),
	"kill-pane":    spec(map[string]flagKind{"-a": flagBool}),
	"select-pane": spec(map[string]flagKind{
		"-U": flagBool, "-D": flagBool, "-L": flagBool, "-R": flagBool,
	}),
	"list-panes": spec(map[string]flagKind{"-s": flagBool}),
	"resize-pane": spec(map[string]flagKind{
		"-U": flagBool, "-D": flagBool, "-L": flagBool, "-R": flagBool,
	}),
	"swap-pane":     spec(map[string]flagKind{"-d": flagBool, "-s": flagString}),
	"rotate-window": spec(map[string]flagKind{"-D": flagBool, "-U": flagBool}),
	"display-panes": spec(nil),
	"pipe-pane":     spec(map[string]flagKind{"-o": flagBool, "-I": flagBool, "-O": flagBool}),
	"join-pane":     spec(map[string]flagKind{"-s": flagString, "-l": flagString}),

	"select-layout":   spec(nil),
	"next-layout":     spec(nil),
	"previous-layout": spec(nil),

	"bind-key":   spec(nil),
	"unbind-key": spec(nil),
	"list-keys":  spec(nil),
	"send-keys": spec(map[string]flagKind{
		"-l": flagBool, "-X": flagString,
	}),
	"send-prefix": spec(nil),

	// set-option/show-options/show-window-options override -s from its
	// spec-wide value-taking default to a bare scope-selector bool: the
	// spec's four scope flags (-g/-s/-w/-p) are a per-command exception to
	// the general "-s always takes a value" rule, the same way tmux-shim's
	// per-command flags map lets one command's -s differ from another's.
	"set-option":          spec(map[string]flagKind{"-a": flagBool, "-u": flagBool, "-o": flagBool, "-s": flagBool}),
	"show-options":        spec(map[string]flagKind{"-v": flagBool, "-s": flagBool}),
	"show-window-options": spec(map[string]flagKind{"-v": flagBool, "-s": flagBool}),
	"set-environment":     spec(nil),
	"show-environment":    spec(nil),

	"set-buffer":    spec(map[string]flagKind{"-b": flagString}),
	"show-buffer":   spec(map[string]flagKind{"-b": flagString}),
	"list-buffers":  spec(nil),
	"delete-buffer": spec(map[string]flagKind{"-b": flagString}),
	"save-buffer":   spec(map[string]flagKind{"-b": flagString}),
	"load-buffer":   spec(map[string]flagKind{"-b": flagString}),
	"paste-buffer":  spec(map[string]flagKind{"-b": flagString}),
	"choose-buffer": spec(nil),

	"capture-pane": spec(map[string]flagKind{
		"-S": flagString, "-E": flagString,
	}),
	"display-message": spec(nil),
	"clear-history":   spec(nil),

	"set-hook":  spec(map[string]flagKind{"-u": flagBool, "-a": flagBool}),
	"show-hooks": spec(nil),

	"run-shell": spec(map[string]flagKind{"-b": flagBool}),
	// if-shell's "-F" is a bare mode-selector bool ("treat the test as a
	// format expression"), not the spec-wide value-taking -F used for
	// -F-template flags elsewhere; same per-command override as
	// set-option's -s above.
	"if-shell": spec(map[string]flagKind{"-F": flagBool}),
	"wait-for":       spec(map[string]flagKind{"-L": flagBool, "-U": flagBool, "-S": flagBool}),
	"source-file":    spec(nil),
	"copy-mode":      spec(map[string]flagKind{"-u": flagBool}),
	"clock-mode":     spec(nil),
	"refresh-client": spec(nil),
	"list-commands":  spec(nil),
}

// commandAliases maps short forms to canonical command names (spec §4.I
// groups, tmux's familiar abbreviations).
var commandAliases = map[string]string{
	"ls":      "list-sessions",
	"new":     "new-session",
	"attach":  "attach-session",
	"detach":  "detach-client",
	"kill":    "kill-session",
	"rename":  "rename-session",
	"neww":    "new-window",
	"killw":   "kill-window",
	"selectw": "select-window",
	"splitw":  "split-window",
	"killp":   "kill-pane",
	"selectp": "select-pane",
	"lsp":     "list-panes",
	"lsw":     "list-windows",
	"set":     "set-option",
	"setw":    "set-option",
	"show":    "show-options",
	"bind":    "bind-key",
	"unbind":  "unbind-key",
	"send":    "send-keys",
}

// canonicalCommand resolves aliases to their canonical name.
func canonicalCommand(name string) string {
	if canon, ok := commandAliases[name]; ok {
		return canon
	}
	return name
}

// CanonicalCommand exports canonicalCommand for cmd/psmux, which needs to
// recognize new-session (and its "new" alias) before it knows whether any
// session-scoped listener exists yet to dial.
func CanonicalCommand(name string) string { return canonicalCommand(name) }

// lookupSpec returns name's commandSpec; ok is false for commands not
// listed in commandSpecs.
func lookupSpec(name string) (commandSpec, bool) {
	if s, ok := commandSpecs[name]; ok {
		return s, true
	}
	return commandSpec{}, false
}
