// Command psmuxd is the psmux daemon: it owns session state, pane ptys, and
// one authenticated TCP listener per session (spec §4.J), plus the reserved
// "_control" listener cmd/psmux dials before any real session exists.
//
// Grounded on cmd/go-tmux/main.go's shape (construct the router/manager,
// start the transport, block on a signal channel, tear down cleanly), with
// the named-pipe router/transport replaced by internal/server's TCP
// listeners and a singleinstance lock added (the teacher's own app already
// guards against a second GUI instance; psmuxd needs the same guarantee per
// socket namespace, not just once per machine).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"psmux/internal/nsfiles"
	"psmux/internal/server"
	"psmux/internal/singleinstance"
)

// version is stamped at release time; psmux -V and psmuxd -V both report it.
const version = "0.1.0"

func main() {
	socket := flag.String("L", "default", "socket namespace")
	shell := flag.String("shell", "powershell.exe", "default shell for new panes")
	showVersion := flag.Bool("V", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("psmuxd " + version)
		return
	}

	logger := log.New(os.Stdout, "[psmuxd] ", log.LstdFlags|log.Lmsgprefix)
	setupLogging(logger)

	mutexName := singleinstance.DefaultMutexName()
	if mutexName != "" && *socket != "default" {
		mutexName += "-" + *socket
	}
	lock, err := singleinstance.TryLock(mutexName)
	if err != nil {
		logger.Fatalf("another psmuxd already owns socket %q: %v", *socket, err)
	}
	defer lock.Release()

	dir, err := nsfiles.BaseDir()
	if err != nil {
		logger.Fatalf("resolve state directory: %v", err)
	}

	srv := server.New(*socket, dir, *shell)
	if err := srv.StartControl(); err != nil {
		logger.Fatalf("start control listener: %v", err)
	}
	logger.Printf("control listener ready, socket=%s dir=%s", *socket, dir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Printf("shutdown started at %s", time.Now().Format(time.RFC3339))
	srv.Shutdown()
}
