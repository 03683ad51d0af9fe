package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"psmux/internal/nsfiles"
)

// shellForTest mirrors internal/ptyio's own test helper: pick a real shell
// off PATH and skip rather than fail when the test environment has none,
// since spawnPane's reconcile pass actually launches a process.
func shellForTest(t *testing.T) string {
	t.Helper()
	if path, err := exec.LookPath("sh"); err == nil {
		return path
	}
	t.Skip("no shell available in test environment")
	return ""
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New("default", t.TempDir(), shellForTest(t))
	t.Cleanup(s.shutdown)
	return s
}

func createTestSession(t *testing.T, s *Server, name string) {
	t.Helper()
	if _, err := s.Execute("", []string{"new-session", "-s", name}); err != nil {
		t.Fatalf("new-session %s: %v", name, err)
	}
}

// dialSession reads name's port/key files (written by reconcileListeners'
// StartSession call, which Execute already ran synchronously) and connects.
func dialSession(t *testing.T, s *Server, name string) (net.Conn, *bufio.Reader, string) {
	t.Helper()
	port, err := nsfiles.ReadPortFile(s.Dir, s.Socket, name)
	if err != nil {
		t.Fatalf("ReadPortFile: %v", err)
	}
	key, err := nsfiles.ReadKeyFile(s.Dir, s.Socket, name)
	if err != nil {
		t.Fatalf("ReadKeyFile: %v", err)
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn), key
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func authenticate(t *testing.T, conn net.Conn, r *bufio.Reader, key string) {
	t.Helper()
	fmt.Fprintf(conn, "AUTH %s\n", key)
	if got := readLine(t, r); got != "OK" {
		t.Fatalf("expected OK from AUTH, got %q", got)
	}
}

func TestAuthenticateSucceedsWithCorrectKey(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)
}

func TestAuthenticateFailsWithWrongKey(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, _ := dialSession(t, s, "work")

	fmt.Fprintf(conn, "AUTH wrong-key\n")
	got := readLine(t, r)
	if !strings.HasPrefix(got, "error:") {
		t.Fatalf("expected error line for bad key, got %q", got)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection closed after failed auth")
	}
}

func TestPersistentHandshakeAcksAndKeepsConnectionOpen(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "PERSISTENT\n")
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected empty ack for PERSISTENT, got %q", got)
	}

	fmt.Fprintf(conn, "list-sessions\n")
	if got := readLine(t, r); !strings.Contains(got, "work") {
		t.Fatalf("expected connection to still be live after PERSISTENT, got %q", got)
	}
}

func TestHandleCommandListSessions(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "list-sessions\n")
	got := readLine(t, r)
	if !strings.Contains(got, "work") {
		t.Fatalf("expected list-sessions output to mention session, got %q", got)
	}
}

func TestHandleCommandUnknownReportsError(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "not-a-real-command\n")
	got := readLine(t, r)
	if !strings.HasPrefix(got, "error:") {
		t.Fatalf("expected error line, got %q", got)
	}
}

func TestClientAttachAcks(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "client-attach\n")
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected empty ack for client-attach, got %q", got)
	}
}

func TestClientSizeResizesActivePane(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "client-size 100 40\n")
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected empty ack for client-size, got %q", got)
	}

	sess, ok := s.Manager.GetSession("work")
	if !ok {
		t.Fatalf("session work missing")
	}
	pane := sess.ActiveWindow().ActivePane()
	if pane.Width != 100 || pane.Height != 40 {
		t.Fatalf("expected active pane resized to 100x40, got %dx%d", pane.Width, pane.Height)
	}
}

func TestClientSizeRejectsMalformedDimensions(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "client-size not-a-number 40\n")
	got := readLine(t, r)
	if !strings.HasPrefix(got, "error:") {
		t.Fatalf("expected error line for malformed client-size, got %q", got)
	}
}

func TestDetachClientClosesConnectionWithoutKillingServer(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "detach-client\n")
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected empty ack before detach, got %q", got)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection closed after detach-client")
	}

	if !s.Manager.HasSession("work") {
		t.Fatalf("expected session to survive a plain client detach")
	}
}

func TestKillServerClosesConnectionAndTearsDownSession(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "kill-server\n")
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected empty ack before shutdown, got %q", got)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection closed after kill-server")
	}
	if s.Manager.HasSession("work") {
		t.Fatalf("expected kill-server to remove every session")
	}
}

func TestDumpStateJSONShape(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")

	raw, err := s.dumpState("work", nil)
	if err != nil {
		t.Fatalf("dumpState: %v", err)
	}
	var parsed dumpStateJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("unmarshal dump-state output: %v", err)
	}
	if parsed.Session != "work" {
		t.Fatalf("expected session work, got %q", parsed.Session)
	}
	if len(parsed.Windows) != 1 || !parsed.Windows[0].Active {
		t.Fatalf("expected one active window, got %+v", parsed.Windows)
	}
	if len(parsed.Panes) != 1 {
		t.Fatalf("expected one pane, got %d", len(parsed.Panes))
	}
	if parsed.PrefixArmed {
		t.Fatalf("expected prefixArmed false when clientKeys is nil")
	}
	if _, ok := parsed.Options["status-left"]; !ok {
		t.Fatalf("expected status-left in options block, got %v", parsed.Options)
	}
}

func TestDumpStateUnknownSessionFails(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.dumpState("ghost", nil); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestDumpStateOverTCP(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	conn, r, key := dialSession(t, s, "work")
	authenticate(t, conn, r, key)

	fmt.Fprintf(conn, "dump-state\n")
	got := readLine(t, r)
	var parsed dumpStateJSON
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("unmarshal dump-state line %q: %v", got, err)
	}
	if parsed.Session != "work" {
		t.Fatalf("expected session work, got %+v", parsed)
	}
}

func TestReconcileListenersStartsOneListenerPerSession(t *testing.T) {
	s := newTestServer(t)
	createTestSession(t, s, "work")
	createTestSession(t, s, "play")

	for _, name := range []string{"work", "play"} {
		if _, err := nsfiles.ReadPortFile(s.Dir, s.Socket, name); err != nil {
			t.Fatalf("expected port file for %s: %v", name, err)
		}
	}

	if _, err := s.Execute("work", []string{"kill-session", "-t", "work"}); err != nil {
		t.Fatalf("kill-session: %v", err)
	}
	if _, err := nsfiles.ReadPortFile(s.Dir, s.Socket, "work"); err == nil {
		t.Fatalf("expected port file removed after kill-session")
	}
}

func TestUnescapeCString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"newline", `a\nb`, "a\nb"},
		{"carriage return and tab", `a\rb\tc`, "a\rb\tc"},
		{"escape char", `\e[`, "\x1b["},
		{"literal backslash", `a\\b`, `a\b`},
		{"quote", `a\"b`, `a"b`},
		{"hex escape", `\x41\x42`, "AB"},
		{"unknown escape passes through", `a\qb`, `a\qb`},
		{"trailing backslash passes through", `a\`, `a\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unescapeCString(tt.in); got != tt.want {
				t.Fatalf("unescapeCString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeySpecForRune(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		want string
	}{
		{"enter", '\r', "Enter"},
		{"newline maps to enter too", '\n', "Enter"},
		{"tab", '\t', "Tab"},
		{"escape", 0x1b, "Escape"},
		{"backspace", 0x7f, "BSpace"},
		{"control-a", 1, "C-a"},
		{"control-z", 26, "C-z"},
		{"plain letter", 'x', "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keySpecForRune(tt.r); got != tt.want {
				t.Fatalf("keySpecForRune(%q) = %q, want %q", tt.r, got, tt.want)
			}
		})
	}
}
