package main

import (
	"fmt"
	"time"

	"golang.org/x/term"
)

// resizePollInterval polls the terminal's reported size rather than
// catching SIGWINCH directly: Windows has no SIGWINCH, and
// mpecarina-tmux-ssh-manager's startPTYResizeWatcher is itself gated behind
// OS build tags for the same reason, so a plain poll is the one shape that
// needs no build-tag split at all.
const resizePollInterval = 500 * time.Millisecond

// watchResize notices terminal size changes and forwards them as
// client-size lines until stop fires.
func watchResize(wc *wireConn, fd int, isTerm bool, once *closeOnce, stop chan struct{}) {
	if !isTerm {
		return
	}
	lastCols, lastRows, err := term.GetSize(fd)
	if err != nil {
		return
	}
	ticker := time.NewTicker(resizePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cols, rows, err := term.GetSize(fd)
			if err != nil {
				continue
			}
			if cols == lastCols && rows == lastRows {
				continue
			}
			lastCols, lastRows = cols, rows
			if _, werr := wc.request(fmt.Sprintf("client-size %d %d", cols, rows)); werr != nil {
				once.do(stop)
				return
			}
		}
	}
}
