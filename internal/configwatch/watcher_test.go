package configwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitReload(t *testing.T, got chan struct{}) {
	t.Helper()
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmux.conf")
	if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := New(path, func() { reloaded <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("set-option status off\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloaded)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmux.conf")
	if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := New(path, func() { reloaded <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(other, []byte("noise"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Fatal("expected no reload for unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherDebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmux.conf")
	if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := New(path, func() { reloaded <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	waitReload(t, reloaded)
	select {
	case <-reloaded:
		t.Fatal("expected burst of writes to coalesce into one reload")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcherReloadsOnRenameIntoPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmux.conf")
	if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := New(path, func() { reloaded <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, "psmux.conf.tmp")
	if err := os.WriteFile(tmp, []byte("set-option status off\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloaded)
}

func TestCloseStopsReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmux.conf")
	if err := os.WriteFile(path, []byte("set-option status on\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := New(path, func() { reloaded <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := os.WriteFile(path, []byte("set-option status off\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloaded:
		t.Fatal("expected no reload after Close")
	case <-time.After(500 * time.Millisecond):
	}
}
