package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// pollInterval bounds how often attach mode asks the daemon for a fresh
// dump-state snapshot between key presses; the teacher-grounded SSH manager
// polls nothing (it streams raw pty bytes), but psmux's transport is a
// request/response line protocol, so polling stands in for a push channel.
const pollInterval = 33 * time.Millisecond

// Local mirrors of internal/server/dumpstate.go's wire JSON. Client and
// server share only the JSON contract, not Go types, since they're separate
// binaries communicating over the loopback TCP protocol (spec §6).
type dumpWindow struct {
	ID     int    `json:"id"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Flags  string `json:"flags"`
	Zoomed bool   `json:"zoomed"`
}

type dumpCellAttr struct {
	Fg        string `json:"fg,omitempty"`
	Bg        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Reverse   bool   `json:"reverse,omitempty"`
	Blink     bool   `json:"blink,omitempty"`
	Dim       bool   `json:"dim,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
	Strike    bool   `json:"strike,omitempty"`
}

type dumpSelection struct {
	Mode    string `json:"mode"`
	AnchorX int    `json:"anchorX"`
	AnchorY int    `json:"anchorY"`
	CursorX int    `json:"cursorX"`
	CursorY int    `json:"cursorY"`
}

type dumpPane struct {
	ID            int              `json:"id"`
	X             int              `json:"x"`
	Y             int              `json:"y"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Active        bool             `json:"active"`
	Dead          bool             `json:"dead"`
	CursorX       int              `json:"cursorX"`
	CursorY       int              `json:"cursorY"`
	CursorVisible bool             `json:"cursorVisible"`
	CursorBlink   bool             `json:"cursorBlink"`
	AltScreen     bool             `json:"altScreen"`
	Title         string           `json:"title"`
	Revision      uint64           `json:"revision"`
	DirtyRows     []int            `json:"dirtyRows,omitempty"`
	Text          []string         `json:"text"`
	Attrs         [][]dumpCellAttr `json:"attrs"`
	CopyMode      bool             `json:"copyMode"`
	Selection     *dumpSelection   `json:"selection,omitempty"`
}

type dumpStateJSON struct {
	Session     string            `json:"session"`
	Layout      string            `json:"layout"`
	Windows     []dumpWindow      `json:"windows"`
	Panes       []dumpPane        `json:"panes"`
	Options     map[string]string `json:"options"`
	PrefixArmed bool              `json:"prefixArmed"`
}

// attach drives an interactive session: raw-mode stdin, a client-attach
// handshake, a background stdin-forwarding goroutine, and a dump-state
// polling render loop painting the active window's panes.
//
// Grounded on mpecarina-tmux-ssh-manager's cmd/tmux-ssh-manager/main.go:
// term.MakeRaw/term.Restore bracket the session, a goroutine forwards stdin
// while the main goroutine reads output (there it's raw pty bytes piped
// straight through; here it's dump-state JSON polled and painted), and a
// resize watcher feeds client-size on terminal size changes. Every line
// this invocation sends goes through wireConn.request so the
// stdin-forwarder, resize watcher, and render loop never interleave a
// write with someone else's pending reply.
func (c *client) attach(commandArgs []string) int {
	ep, err := c.resolve(prependAttach(commandArgs))
	if err != nil {
		fmt.Fprintln(os.Stderr, "psmux:", err)
		return 1
	}
	wc, err := dial(ep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "psmux:", err)
		return 1
	}
	defer wc.Close()

	setConsoleUTF8()

	if _, err := wc.request("PERSISTENT"); err != nil {
		fmt.Fprintln(os.Stderr, "psmux:", err)
		return 1
	}

	fd := int(os.Stdin.Fd())
	isTerm := term.IsTerminal(fd)

	var oldState *term.State
	if isTerm {
		oldState, err = term.MakeRaw(fd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "psmux: raw mode:", err)
			return 1
		}
		defer term.Restore(fd, oldState)
	}

	cols, rows := 80, 24
	if isTerm {
		if w, h, err := term.GetSize(fd); err == nil {
			cols, rows = w, h
		}
	}
	wc.request(fmt.Sprintf("client-size %d %d", cols, rows))
	wc.request("client-attach")

	stop := make(chan struct{})
	var stopOnce closeOnce
	go forwardStdin(wc, &stopOnce, stop)
	go watchResize(wc, fd, isTerm, &stopOnce, stop)

	if cw := startConfigWatch(wc); cw != nil {
		defer cw.Close()
	}

	r := newRenderer(os.Stdout)
	defer r.reset()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return 0
		case <-ticker.C:
			line, err := wc.request("dump-state")
			if err != nil {
				stopOnce.do(stop)
				return 0
			}
			if strings.HasPrefix(line, "error:") {
				continue
			}
			var snap dumpStateJSON
			if err := json.Unmarshal([]byte(line), &snap); err != nil {
				continue
			}
			r.render(snap)
		}
	}
}

// prependAttach gives resolve() an argv whose canonical command is
// attach-session when commandArgs is empty, so an empty psmux invocation
// still resolves a -t target the same way "psmux attach" would.
func prependAttach(commandArgs []string) []string {
	if len(commandArgs) == 0 {
		return []string{"attach-session"}
	}
	return commandArgs
}

// closeOnce lets the stdin-forwarder, resize watcher, and poll loop each
// independently notice connection loss without double-closing stop.
type closeOnce struct {
	once sync.Once
}

func (o *closeOnce) do(stop chan struct{}) {
	o.once.Do(func() { close(stop) })
}

// forwardStdin reads raw bytes from stdin and feeds them through send-text,
// signaling stop on read or write failure (remote hangup, local EOF).
func forwardStdin(wc *wireConn, once *closeOnce, stop chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if _, werr := wc.request("send-text " + encodeCString(buf[:n])); werr != nil {
				once.do(stop)
				return
			}
		}
		if err != nil {
			once.do(stop)
			return
		}
	}
}
