package main

import "io"

// printUsage prints the CLI's top-level usage, mirroring tmux's own -h/--help
// text shape (global flags, then the commonly used subcommands).
func printUsage(w io.Writer) {
	io.WriteString(w, `usage: psmux [-L socket-name] [-V] [command [flags]]

global flags:
  -L <name>   use a named socket (default: "default")
  -V          print version and exit
  -h, --help  print this message and exit

with no command, psmux attaches to the one running session. It does not
create a session when none exists.

common commands:
  new-session [-s name] [-n window-name] [-c start-dir]
  attach-session [-t target]
  list-sessions
  list-windows [-t target]
  list-panes [-t target]
  new-window [-t target] [-n name] [-c start-dir]
  split-window [-h|-v] [-t target] [-c start-dir]
  select-window -t target
  select-pane -t target
  kill-session [-t target]
  kill-server
  rename-session -t target new-name
  send-keys [-t target] keys...
  set-option [-g] [-t target] name value
  source-file path
  list-commands

run "psmux <command> -h" style help is not implemented; see the project
documentation for the full command reference.
`)
}
