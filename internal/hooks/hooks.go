// Package hooks implements spec §4.K's hook-firing semantics: binding a
// command sequence to a named event (set-hook), and running it against the
// session/window/pane that triggered it.
//
// No teacher file does anything like this; built against spec §4.K/§5
// directly ("hooks run synchronously on the triggering thread and may
// enqueue further commands"), in the store-then-invoke shape already
// established by internal/session's buffer/option stores: a small map
// plus an invocation helper, not a separate event-bus package.
package hooks

import "psmux/internal/session"

// Runner executes one hook-bound command line against the session it
// fired from. Supplied by whatever owns the command dispatcher
// (internal/command.Dispatcher), so this package never imports command
// and cannot form an import cycle.
type Runner func(sessionName, commandLine string)

// Fire runs every command bound to name on sess, in registration order,
// synchronously on the calling goroutine (spec §5). A nil session or an
// event with no bound commands is a no-op.
func Fire(sess *session.Session, name string, run Runner) {
	if sess == nil || run == nil {
		return
	}
	cmds := append([]string(nil), sess.Hooks[name]...)
	for _, cmd := range cmds {
		run(sess.Name, cmd)
	}
}

// Known lists the events spec §4.K names as implementer-required; set-hook
// accepts any name (tmux has dozens more), this is only the documented
// minimum the dispatcher fires itself.
var Known = []string{
	"after-new-session",
	"after-new-window",
	"after-split-window",
	"after-kill-pane",
	"pane-exited",
	"client-attached",
	"client-detached",
}
