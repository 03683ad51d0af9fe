package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"psmux/internal/command"
	"psmux/internal/config"
	"psmux/internal/configwatch"
	"psmux/internal/errs"
	"psmux/internal/nsfiles"
	"psmux/internal/server"
)

// daemonStartTimeout bounds how long a freshly spawned psmuxd gets to bind
// its control listener before this invocation gives up.
const daemonStartTimeout = 5 * time.Second

// client holds the state one psmux invocation needs to resolve a session,
// dial it, and speak the TCP wire protocol.
type client struct {
	socket string
	dir    string
}

func newClient(socket string) (*client, error) {
	dir, err := nsfiles.BaseDir()
	if err != nil {
		return nil, err
	}
	return &client{socket: socket, dir: dir}, nil
}

// endpoint is the port/key pair of a listener this client will dial,
// whether that is a real session or the reserved control listener.
type endpoint struct {
	session string
	port    int
	key     string
}

// resolve picks which listener commandArgs should run against: the
// session named by -t or $PSMUX when present, the one existing session
// when there's exactly one, or the control listener when no session
// reaches a decision (spec's open question on session-less bootstrap,
// see DESIGN.md).
func (c *client) resolve(commandArgs []string) (endpoint, error) {
	canon := ""
	if len(commandArgs) > 0 {
		canon = command.CanonicalCommand(commandArgs[0])
	}
	if canon == "new-session" {
		return c.controlEndpoint()
	}

	if target := targetSessionName(commandArgs); target != "" {
		port, err := nsfiles.ReadPortFile(c.dir, c.socket, target)
		if err == nil {
			key, keyErr := nsfiles.ReadKeyFile(c.dir, c.socket, target)
			if keyErr == nil {
				return endpoint{session: target, port: port, key: key}, nil
			}
		}
	}

	if env := os.Getenv("PSMUX"); env != "" {
		socketPath, port, sessionID, err := nsfiles.ParseEnv(env)
		if err == nil {
			key, keyErr := nsfiles.ReadKeyFile(c.dir, filepath.Base(socketPath), sessionID)
			if keyErr != nil {
				key, keyErr = nsfiles.ReadKeyFile(c.dir, c.socket, sessionID)
			}
			if keyErr == nil {
				return endpoint{session: sessionID, port: port, key: key}, nil
			}
		}
	}

	ep, err := nsfiles.Resolve(c.dir, c.socket, "")
	if err == nil {
		return endpoint{session: ep.Session, port: ep.Port, key: ep.Key}, nil
	}
	if errors.Is(err, errs.ErrNotFound) {
		return c.controlEndpoint()
	}
	return endpoint{}, err
}

// targetSessionName extracts the session part of a -t argument (tmux-strict
// getopt: -t always consumes the next token, spec §4.I), trimming any
// :window.pane suffix. Returns "" when no -t is present.
func targetSessionName(argv []string) string {
	for i := 0; i < len(argv)-1; i++ {
		if argv[i] == "-t" {
			target := argv[i+1]
			if idx := strings.IndexAny(target, ":"); idx >= 0 {
				target = target[:idx]
			}
			return target
		}
	}
	return ""
}

// controlEndpoint reads (starting the daemon first if needed) the reserved
// "_control" listener's port/key.
func (c *client) controlEndpoint() (endpoint, error) {
	port, portErr := nsfiles.ReadPortFile(c.dir, c.socket, server.ControlSessionName)
	keyOK := portErr == nil
	var key string
	if keyOK {
		var keyErr error
		key, keyErr = nsfiles.ReadKeyFile(c.dir, c.socket, server.ControlSessionName)
		keyOK = keyErr == nil
	}
	if keyOK {
		return endpoint{session: server.ControlSessionName, port: port, key: key}, nil
	}

	sourced, err := c.spawnDaemon()
	if err != nil {
		return endpoint{}, err
	}
	port, err = nsfiles.ReadPortFile(c.dir, c.socket, server.ControlSessionName)
	if err != nil {
		return endpoint{}, err
	}
	key, err = nsfiles.ReadKeyFile(c.dir, c.socket, server.ControlSessionName)
	if err != nil {
		return endpoint{}, err
	}
	ep := endpoint{session: server.ControlSessionName, port: port, key: key}
	if sourced {
		c.sourceConfig(ep)
	}
	return ep, nil
}

// spawnDaemon launches psmuxd as a detached background process and waits
// for its control listener's files to appear. Returns true if this call is
// the one that actually started the daemon (so the caller knows to run the
// initial source-file ingestion spec §4.L/§6 delegates to the CLI).
func (c *client) spawnDaemon() (bool, error) {
	bin, err := psmuxdPath()
	if err != nil {
		return false, fmt.Errorf("locate psmuxd: %w", err)
	}
	cmd := exec.Command(bin, "-L", c.socket)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("start psmuxd: %w", err)
	}
	go cmd.Wait()

	deadline := time.Now().Add(daemonStartTimeout)
	for time.Now().Before(deadline) {
		if _, err := nsfiles.ReadPortFile(c.dir, c.socket, server.ControlSessionName); err == nil {
			return true, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false, fmt.Errorf("psmuxd did not start within %s", daemonStartTimeout)
}

// psmuxdPath finds the psmuxd binary next to the running psmux executable,
// falling back to PATH lookup.
func psmuxdPath() (string, error) {
	name := "psmuxd"
	if filepath.Ext(os.Args[0]) == ".exe" {
		name += ".exe"
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), name)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

// sourceConfig feeds the discovered config file's path through source-file
// on a freshly spawned daemon, ignoring a missing config (DefaultConfig).
func (c *client) sourceConfig(ep endpoint) {
	path, err := config.ResolveConfigPath()
	if err != nil {
		return
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return
	}
	wc, err := dial(ep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "psmux: warning: initial source-file dial failed:", err)
		return
	}
	defer wc.Close()
	wc.request(fmt.Sprintf("source-file %s", quoteArg(path)))
}

// startConfigWatch watches the resolved config file for the lifetime of an
// attach session, re-sending source-file on every edit. Only attach mode
// lives long enough for a watch to matter; one-shot commands exit before a
// save could ever land. Returns nil when no config file is found, so the
// caller's defer is a no-op rather than special-cased at the call site.
func startConfigWatch(wc *wireConn) *configwatch.Watcher {
	path, err := config.ResolveConfigPath()
	if err != nil {
		return nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil
	}
	cw, err := configwatch.New(path, func() {
		wc.request(fmt.Sprintf("source-file %s", quoteArg(path)))
	})
	if err != nil {
		return nil
	}
	return cw
}

// wireConn is one authenticated connection to a psmuxd listener. request
// serializes every line this process sends, since attach mode has a
// stdin-forwarding goroutine, a resize watcher, and the poll loop all
// sharing the same connection, and the wire protocol is strictly one
// request/one reply per line (conn.go's handleConn reads and replies to one
// line at a time).
type wireConn struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// dial opens and authenticates a connection to ep.
func dial(ep endpoint) (*wireConn, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", ep.port))
	if err != nil {
		return nil, err
	}
	wc := &wireConn{conn: conn, reader: bufio.NewReader(conn)}
	reply, err := wc.request("AUTH " + ep.key)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if reply != "OK" {
		conn.Close()
		return nil, fmt.Errorf("auth failed: %s", reply)
	}
	return wc, nil
}

// request writes line, terminated with \n, and returns the single reply
// line the server sends back. Safe for concurrent use.
func (wc *wireConn) request(line string) (string, error) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if _, err := wc.conn.Write([]byte(line + "\n")); err != nil {
		return "", err
	}
	raw, err := wc.reader.ReadString('\n')
	if err != nil && raw == "" {
		return "", err
	}
	return strings.TrimRight(raw, "\r\n"), nil
}

func (wc *wireConn) Close() error {
	return wc.conn.Close()
}

// runOnce sends commandArgs as one line to the resolved session (or
// control listener) and prints the single-line reply.
func (c *client) runOnce(commandArgs []string) int {
	ep, err := c.resolve(commandArgs)
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

	reply, err := wc.request(joinArgv(commandArgs))
	if err != nil {
		fmt.Fprintln(os.Stderr, "psmux:", err)
		return 1
	}
	if strings.HasPrefix(reply, "error:") {
		fmt.Fprintln(os.Stderr, strings.TrimPrefix(reply, "error: "))
		return 1
	}
	if reply != "" {
		fmt.Println(reply)
	}
	return 0
}

// joinArgv rebuilds one line from an already OS-split argv, quoting any
// token internal/command's splitShellWords would otherwise misparse.
func joinArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quoteArg(a)
	}
	return strings.Join(parts, " ")
}

// quoteArg quotes a would-be word the same way internal/command's
// splitShellWords expects to unquote it: single quotes when the value
// itself has none, otherwise double quotes with backslash-escaped quotes
// and backslashes.
func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
