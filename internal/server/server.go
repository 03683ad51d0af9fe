// Package server implements the authenticated loopback TCP protocol (spec
// §4.J): one ephemeral-port listener per session, an AUTH/PERSISTENT
// handshake, line-oriented command dispatch, and the dump-state JSON
// renderer an attached client polls for screen updates.
//
// Grounded on internal/wsserver/hub.go (listener lifecycle, per-connection
// write-deadline discipline, panic-recovered read pump) and
// internal/ipc/pipe_server.go (accept loop, connection-slot limiting,
// line-oriented request framing), adapted from websocket/named-pipe
// transport to the plain loopback TCP connection spec §6 describes.
package server

import (
	"log/slog"
	"sync"

	"psmux/internal/command"
	"psmux/internal/keytable"
	"psmux/internal/options"
	"psmux/internal/ptyio"
	"psmux/internal/session"
)

// Server owns the session Manager, the command dispatcher, the key-table
// registry shared by every connection's per-client prefix state, and the
// pane-id -> ptyio.Pane registry command's PTYProvider callback reads.
type Server struct {
	Socket string
	Dir    string

	Manager    *session.Manager
	Keys       *keytable.Registry
	Dispatcher *command.Dispatcher

	DefaultShell string

	ptyMu sync.RWMutex
	ptys  map[int]*ptyio.Pane

	listenerMu sync.Mutex
	listeners  map[string]*sessionListener
}

// New constructs a Server bound to socket's namespace under dir (typically
// nsfiles.BaseDir()). defaultShell is used for panes whose session hasn't
// overridden default-shell (spec §4.E); psmuxd passes its -shell flag,
// which defaults to "powershell.exe".
func New(socket, dir, defaultShell string) *Server {
	s := &Server{
		Socket:       socket,
		Dir:          dir,
		Keys:         keytable.NewRegistry(),
		ptys:         map[int]*ptyio.Pane{},
		listeners:    map[string]*sessionListener{},
		DefaultShell: defaultShell,
	}
	s.Manager = session.NewManager(s.onPaneClosed)
	s.Dispatcher = command.NewDispatcher(s.Manager, s.Keys, s.providePTY)
	return s
}

// providePTY is the command.PTYProvider: it never spawns a pane, only looks
// one up, since pane spawning happens in reconcilePanes after a command
// that created a new session.Pane runs.
func (s *Server) providePTY(paneID int) (*ptyio.Pane, bool) {
	s.ptyMu.RLock()
	defer s.ptyMu.RUnlock()
	p, ok := s.ptys[paneID]
	return p, ok
}

func (s *Server) setPTY(paneID int, p *ptyio.Pane) {
	s.ptyMu.Lock()
	s.ptys[paneID] = p
	s.ptyMu.Unlock()
}

// onPaneClosed is session.Manager's PaneCloser: invoked outside Manager.mu
// for every pane a session/window/pane removal tore down, so it is safe to
// block here closing the pty.
func (s *Server) onPaneClosed(p *session.Pane) {
	s.ptyMu.Lock()
	pty, ok := s.ptys[p.ID]
	delete(s.ptys, p.ID)
	s.ptyMu.Unlock()
	if ok {
		if err := pty.Close(); err != nil {
			slog.Debug("[server] pane close", "pane", p.IDString(), "error", err)
		}
	}
}

// Execute runs one already-chain-split argv through the dispatcher, then
// reconciles the pty registry against the resulting session tree: commands
// never spawn or resize ptys themselves (internal/command stays pty-
// agnostic, see command.PTYProvider's doc comment), so every command that
// may have added, removed, or resized a pane is followed by a reconcile
// pass here.
func (s *Server) Execute(currentSession string, args []string) (command.Result, error) {
	res, err := s.Dispatcher.Execute(currentSession, args)
	s.reconcilePanes()
	s.reconcileListeners()
	return res, err
}

// reconcilePanes spawns a pty for every live session.Pane lacking one, and
// resizes every pty whose Screen size has drifted from its session.Pane's
// recorded Width/Height (layout/resize commands mutate the latter without
// touching the pty directly).
func (s *Server) reconcilePanes() {
	for _, sess := range s.Manager.ListSessions() {
		for _, win := range sess.Windows {
			for _, pane := range win.Panes {
				s.reconcilePane(sess, pane)
			}
		}
	}
}

func (s *Server) reconcilePane(sess *session.Session, pane *session.Pane) {
	if pane.Dead {
		return
	}
	s.ptyMu.RLock()
	pty, ok := s.ptys[pane.ID]
	s.ptyMu.RUnlock()
	if !ok {
		s.spawnPane(sess, pane)
		return
	}
	cols, rows := pty.Screen().Size()
	if cols != pane.Width || rows != pane.Height {
		if err := pty.Resize(pane.Width, pane.Height); err != nil {
			slog.Debug("[server] pane resize", "pane", pane.IDString(), "error", err)
		}
	}
	if pty.Dead() && !pane.Dead {
		pane.Dead = true
	}
}

func (s *Server) spawnPane(sess *session.Session, pane *session.Pane) {
	shell := s.resolveOption(pane, "default-shell").Str
	if shell == "" {
		shell = s.DefaultShell
	}
	historyLimit := s.resolveOption(pane, "history-limit").Int
	remainOnExit := s.resolveBoolOption(pane, "remain-on-exit")
	pane.RemainOnExit = remainOnExit

	env := make([]string, 0, len(sess.Env)+len(pane.Env))
	for k, v := range sess.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range pane.Env {
		env = append(env, k+"="+v)
	}

	pty, err := ptyio.Start(ptyio.Config{
		Shell:        shell,
		Dir:          pane.WorkingDir,
		Env:          env,
		Columns:      pane.Width,
		Rows:         pane.Height,
		HistoryLimit: historyLimit,
		RemainOnExit: remainOnExit,
		OnExit: func(exitCode int) {
			s.onPaneExit(sess, pane, exitCode)
		},
	})
	if err != nil {
		slog.Warn("[server] spawn pane failed", "pane", pane.IDString(), "error", err)
		pane.Dead = true
		return
	}
	s.setPTY(pane.ID, pty)
}

// onPaneExit fires pane-exited, then (unless remain-on-exit holds the pane
// open) removes it from its window, mirroring tmux's default behavior.
func (s *Server) onPaneExit(sess *session.Session, pane *session.Pane, exitCode int) {
	pane.Dead = true
	s.Dispatcher.FireHook(sess, "pane-exited")
	if !pane.RemainOnExit {
		s.Manager.RemovePane(pane.ID)
	}
}

// resizePane applies an attached client's reported terminal size to the
// pane's window, then reconciles so the pty follows (client-size, spec
// §4.J). sess/pane are accepted for symmetry with the reconcile helpers
// but only win's id is actually needed here.
func (s *Server) resizePane(sess *session.Session, win *session.Window, pane *session.Pane, cols, rows int) {
	if err := s.Manager.ResizeWindow(win.ID, cols, rows); err != nil {
		slog.Debug("[server] resize window", "window", win.IDString(), "error", err)
		return
	}
	s.reconcilePanes()
}

// shutdown tears down every session listener and releases every pty
// (kill-server, spec §4.J's "shutdown" sentinel).
func (s *Server) shutdown() {
	s.StopAll()
	s.Manager.Close()
}

// Shutdown exposes shutdown to cmd/psmuxd's signal handler, which has no
// other way to release listeners and ptys cleanly on SIGINT/SIGTERM.
func (s *Server) Shutdown() {
	s.shutdown()
}

func (s *Server) resolveOption(pane *session.Pane, name string) options.Value {
	r := s.lookupChain(pane, name)
	return r.Value
}

func (s *Server) resolveBoolOption(pane *session.Pane, name string) bool {
	return s.resolveOption(pane, name).Bool
}

func (s *Server) lookupChain(pane *session.Pane, name string) options.Resolved {
	var winOpts, sessOpts *options.Set
	if pane.Window != nil {
		winOpts = pane.Window.Opts
		if pane.Window.Session != nil {
			sessOpts = pane.Window.Session.Opts
		}
	}
	r, err := options.LookupChain(name, pane.Opts, winOpts, sessOpts, s.Manager.ServerOpts)
	if err != nil {
		return options.Resolved{}
	}
	return r
}
