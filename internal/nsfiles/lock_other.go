//go:build !windows

package nsfiles

import "errors"

// ErrNamespaceInUse is returned by TryLockNamespace when another server
// process already owns socket's namespace.
var ErrNamespaceInUse = errors.New("namespace already has a running server")

// NamespaceLock is a no-op on non-Windows platforms; the port/key file's
// own existence plus a live TCP listener on its port is enough of a
// collision signal there.
type NamespaceLock struct{}

// TryLockNamespace always succeeds on non-Windows platforms.
func TryLockNamespace(_ string) (*NamespaceLock, error) { return &NamespaceLock{}, nil }

// Release is a no-op on non-Windows platforms.
func (l *NamespaceLock) Release() error { return nil }
