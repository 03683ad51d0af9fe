//go:build windows

package nsfiles

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"regexp"
	"strings"

	"github.com/Microsoft/go-winio"

	"psmux/internal/userutil"
)

// ErrNamespaceInUse is returned by TryLockNamespace when another server
// process already owns socket's namespace.
var ErrNamespaceInUse = errors.New("namespace already has a running server")

// NamespaceLock holds the named-pipe listener backing a per-namespace
// advisory lock: as long as it stays open, no other process can open the
// same pipe name and TryLockNamespace fails for them with
// ErrNamespaceInUse.
//
// Grounded on internal/ipc's pipe_server.go: the same current-user-only
// DACL construction (listenPipeWithCurrentUserDACL/pipeSecurityDescriptor),
// repurposed from a command-carrying RPC channel into a lock whose only
// traffic is its own existence.
type NamespaceLock struct {
	listener net.Listener
}

// TryLockNamespace attempts to claim socket's namespace lock pipe. A nil
// NamespaceLock with ErrNamespaceInUse means a server already owns socket.
func TryLockNamespace(socket string) (*NamespaceLock, error) {
	name := namespacePipeName(socket)
	sd, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	listener, err := winio.ListenPipe(name, &winio.PipeConfig{
		SecurityDescriptor: sd,
		MessageMode:        false,
		InputBufferSize:    64,
		OutputBufferSize:   64,
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "access is denied") {
			return nil, ErrNamespaceInUse
		}
		return nil, fmt.Errorf("listen %s: %w", name, err)
	}
	return &NamespaceLock{listener: listener}, nil
}

// Release closes the lock pipe, freeing the namespace for another server.
// Safe on a nil receiver.
func (l *NamespaceLock) Release() error {
	if l == nil || l.listener == nil {
		return nil
	}
	err := l.listener.Close()
	l.listener = nil
	return err
}

func namespacePipeName(socket string) string {
	socket = strings.TrimSpace(socket)
	if socket == "" {
		socket = defaultSocketName
	}
	username := ""
	if current, err := user.Current(); err == nil {
		username = current.Username
	}
	return `\\.\pipe\psmux-` + userutil.SanitizeUsername(username) + `-` + sanitizeSocket(socket)
}

var socketSanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeSocket(socket string) string {
	return socketSanitizePattern.ReplaceAllString(socket, "_")
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
