// Command psmux is the CLI client for the psmux daemon: it resolves which
// session (or the reserved control listener) to dial, authenticates over
// the loopback TCP protocol (spec §6), and either forwards one command and
// prints its reply or drives an interactive attach loop.
//
// Grounded on cmd/tmux-shim's original shape (parse argv, talk to a daemon
// over a local transport, print its reply, propagate its exit code) with
// the JSON-RPC-over-named-pipe transport replaced by the line-oriented TCP
// protocol internal/server implements, and the one-shot request/response
// model extended with a real interactive attach mode modeled on
// mpecarina-tmux-ssh-manager's cmd/tmux-ssh-manager/main.go (term.MakeRaw/
// term.GetSize/term.Restore for local raw-mode stdin, a background reader
// goroutine, resize by polling the terminal size; see resize.go) since
// cmd/tmux-shim never needed one.
package main

import (
	"fmt"
	"os"

	"psmux/internal/command"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	socket := "default"
	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-L" && i+1 < len(args):
			socket = args[i+1]
			i += 2
		case args[i] == "-V":
			fmt.Println("psmux " + version)
			return 0
		case args[i] == "--help" || args[i] == "-h":
			printUsage(os.Stdout)
			return 0
		default:
			goto parsed
		}
	}
parsed:
	commandArgs := args[i:]

	cmdName := ""
	if len(commandArgs) > 0 {
		cmdName = command.CanonicalCommand(commandArgs[0])
	}

	client, err := newClient(socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, "psmux:", err)
		return 1
	}

	if cmdName == "" || cmdName == "attach-session" {
		return client.attach(commandArgs)
	}
	return client.runOnce(commandArgs)
}
