// Package ptyio wires a pane's host pseudo-console (internal/terminal) to
// its screen emulator (internal/screen): a reader goroutine feeds bytes
// from the PTY into the Screen's parser, an optional pipe-pane tee copies
// the same bytes to a file or command, and exit/resize/write/close are
// exposed as the small surface internal/command's pane operations need.
//
// Grounded on the teacher's internal/terminal (Start/ReadLoop/Write/Resize/
// Close) and internal/workerutil (panic-recovered reader goroutine, spec
// §7: "no panics cross goroutine boundaries").
package ptyio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"psmux/internal/errs"
	"psmux/internal/screen"
	"psmux/internal/terminal"
	"psmux/internal/workerutil"
)

// ExitFunc is called exactly once when the host process exits, with its
// exit code (best-effort; 0 if unknown).
type ExitFunc func(exitCode int)

// Config configures a pane's PTY.
type Config struct {
	Shell      string
	Args       []string
	Dir        string
	Env        []string
	Columns    int
	Rows       int
	HistoryLimit int

	// RemainOnExit keeps the pane slot alive (dead, but not removed) after
	// the host process exits, matching tmux's remain-on-exit option.
	RemainOnExit bool

	OnExit ExitFunc
}

// Pane owns one pane's PTY process, screen emulator, and optional
// pipe-pane tee target.
type Pane struct {
	screen *screen.Screen

	mu       sync.Mutex
	term     *terminal.Terminal
	dead     bool
	exitCode int
	remain   bool
	pipeFile *os.File
	pipeCmd  *exec.Cmd
	pipeIn   io.WriteCloser

	cancel context.CancelFunc
	wg     sync.WaitGroup

	onExit ExitFunc
	closed atomic.Bool
}

// Start spawns the host process and begins the reader loop. The returned
// Pane's Screen is ready to read from immediately (blank until the first
// bytes arrive).
func Start(cfg Config) (*Pane, error) {
	cols, rows := cfg.Columns, cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 2000
	}

	term, err := terminal.Start(terminal.Config{
		Shell:   cfg.Shell,
		Args:    cfg.Args,
		Dir:     cfg.Dir,
		Env:     cfg.Env,
		Columns: cols,
		Rows:    rows,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn pane process: %w: %v", errs.ErrChildSpawn, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pane{
		screen: screen.New(cols, rows, historyLimit),
		term:   term,
		remain: cfg.RemainOnExit,
		cancel: cancel,
		onExit: cfg.OnExit,
	}

	workerutil.RunWithPanicRecovery(ctx, "pane-reader", &p.wg, func(_ context.Context) {
		p.readLoop()
	}, workerutil.RecoveryOptions{MaxRetries: 1})

	return p, nil
}

// Screen returns the pane's terminal emulator state.
func (p *Pane) Screen() *screen.Screen { return p.screen }

// PID returns the host process id, 0 if the pane is dead.
func (p *Pane) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.term == nil {
		return 0
	}
	return p.term.PID()
}

// Dead reports whether the host process has exited.
func (p *Pane) Dead() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

// ExitCode returns the host process's exit code once Dead() is true.
func (p *Pane) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Write sends input bytes to the host process. Returns errs.ErrIO if the
// pane is dead.
func (p *Pane) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead || p.term == nil {
		return fmt.Errorf("pane write: %w", errs.ErrIO)
	}
	if _, err := p.term.Write(data); err != nil {
		return fmt.Errorf("pane write: %w: %v", errs.ErrIO, err)
	}
	return nil
}

// Resize propagates a new size to both the host PTY and the screen.
// Screen.Resize is always applied so grid state stays consistent even
// after the pane has died (spec: resize must never panic on a dead pane).
func (p *Pane) Resize(cols, rows int) error {
	p.screen.Resize(cols, rows)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead || p.term == nil {
		return nil
	}
	if err := p.term.Resize(cols, rows); err != nil {
		return fmt.Errorf("pane resize: %w: %v", errs.ErrIO, err)
	}
	return nil
}

// PipeOn starts tee-ing subsequent output bytes to target: a file path, or
// (when target starts with "|") a shell command receiving the bytes on
// stdin. PipeOff (or a second PipeOn) closes the previous target first.
func (p *Pane) PipeOn(target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closePipeLocked()

	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("pipe-pane target required: %w", errs.ErrParse)
	}
	if cmdLine, ok := strings.CutPrefix(target, "|"); ok {
		cmd := exec.Command(defaultShellFor(cmdLine), "-c", cmdLine)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("pipe-pane: %w: %v", errs.ErrIO, err)
		}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("pipe-pane: %w: %v", errs.ErrChildSpawn, err)
		}
		p.pipeCmd = cmd
		p.pipeIn = stdin
		return nil
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("pipe-pane: %w: %v", errs.ErrIO, err)
	}
	p.pipeFile = file
	return nil
}

// PipeOff stops any active pipe-pane tee.
func (p *Pane) PipeOff() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closePipeLocked()
}

func (p *Pane) closePipeLocked() {
	if p.pipeFile != nil {
		p.pipeFile.Close()
		p.pipeFile = nil
	}
	if p.pipeIn != nil {
		p.pipeIn.Close()
		p.pipeIn = nil
	}
	if p.pipeCmd != nil {
		_ = p.pipeCmd.Wait()
		p.pipeCmd = nil
	}
}

func defaultShellFor(_ string) string {
	if sh := strings.TrimSpace(os.Getenv("SHELL")); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Close terminates the host process (if still alive) and stops the reader
// goroutine. Safe to call multiple times.
func (p *Pane) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cancel()

	p.mu.Lock()
	term := p.term
	p.closePipeLocked()
	p.mu.Unlock()

	var err error
	if term != nil {
		err = term.Close()
	}
	p.wg.Wait()
	return err
}

func (p *Pane) readLoop() {
	p.mu.Lock()
	term := p.term
	p.mu.Unlock()
	if term == nil {
		return
	}

	term.ReadLoop(func(data []byte) {
		p.screen.Write(data)
		p.teeLocked(data)
	})

	p.mu.Lock()
	p.dead = true
	p.exitCode = term.ExitCode()
	onExit := p.onExit
	code := p.exitCode
	p.mu.Unlock()

	if onExit != nil {
		onExit(code)
	}
}

func (p *Pane) teeLocked(data []byte) {
	p.mu.Lock()
	file := p.pipeFile
	in := p.pipeIn
	p.mu.Unlock()
	if file != nil {
		if _, err := file.Write(data); err != nil {
			slog.Debug("[DEBUG-PTYIO] pipe-pane file write failed", "error", err)
		}
	}
	if in != nil {
		if _, err := in.Write(data); err != nil {
			slog.Debug("[DEBUG-PTYIO] pipe-pane command write failed", "error", err)
		}
	}
}

var errClosed = errors.New("ptyio: pane closed")

// ErrClosed returns the "pane closed" sentinel error. No Pane method
// returns it: Write after Close reports an errs.ErrIO error.
func ErrClosed() error { return errClosed }
