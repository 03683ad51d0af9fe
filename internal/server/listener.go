package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"psmux/internal/nsfiles"
)

// maxConcurrentConns bounds simultaneous connections per session listener;
// acceptLoop answers "server busy" and closes any connection beyond it.
const maxConcurrentConns = 32

// sessionListener is one session's dedicated ephemeral-port TCP listener
// (spec §4.J/§4.L: "one port/key pair exists per session").
type sessionListener struct {
	session string
	key     string
	ln      net.Listener

	cancel chan struct{}
	wg     sync.WaitGroup
	slots  chan struct{}
}

// StartSession opens a new TCP listener for session, writes its .port/.key
// files under s.Dir, and begins accepting connections. Call once per
// session: reconcileListeners does so after a command creates a session,
// and StartControl does so for the control listener.
func (s *Server) StartSession(sessionName string) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for session %s: %w", sessionName, err)
	}
	key, err := nsfiles.GenerateKey()
	if err != nil {
		ln.Close()
		return fmt.Errorf("generate key for session %s: %w", sessionName, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := nsfiles.WritePortFile(s.Dir, s.Socket, sessionName, port); err != nil {
		ln.Close()
		return err
	}
	if err := nsfiles.WriteKeyFile(s.Dir, s.Socket, sessionName, key); err != nil {
		ln.Close()
		return err
	}

	sl := &sessionListener{
		session: sessionName,
		key:     key,
		ln:      ln,
		cancel:  make(chan struct{}),
		slots:   make(chan struct{}, maxConcurrentConns),
	}
	s.listenerMu.Lock()
	s.listeners[sessionName] = sl
	s.listenerMu.Unlock()

	sl.wg.Add(1)
	go s.acceptLoop(sl)
	slog.Info("[server] session listening", "session", sessionName, "port", port)
	return nil
}

// StopSession closes sessionName's listener, waits for its connections to
// drain, and removes its port/key files (kill-session's cleanup path).
func (s *Server) StopSession(sessionName string) {
	s.listenerMu.Lock()
	sl, ok := s.listeners[sessionName]
	delete(s.listeners, sessionName)
	s.listenerMu.Unlock()
	if !ok {
		return
	}
	close(sl.cancel)
	sl.ln.Close()
	sl.wg.Wait()
	if err := nsfiles.RemoveFiles(s.Dir, s.Socket, sessionName); err != nil {
		slog.Debug("[server] remove session files", "session", sessionName, "error", err)
	}
}

// StopAll closes every session listener (kill-server).
func (s *Server) StopAll() {
	s.listenerMu.Lock()
	names := make([]string, 0, len(s.listeners))
	for name := range s.listeners {
		names = append(names, name)
	}
	s.listenerMu.Unlock()
	for _, name := range names {
		s.StopSession(name)
	}
}

// ControlSessionName is the reserved pseudo-session StartControl binds a
// listener under. It holds no session.Manager state; it exists only so a
// fresh psmux invocation has somewhere to dial -t-less commands like
// new-session before any real session (and therefore any real listener)
// exists. reconcileListeners never tears it down.
const ControlSessionName = "_control"

// StartControl opens the bootstrap listener psmuxd binds once at startup.
func (s *Server) StartControl() error {
	return s.StartSession(ControlSessionName)
}

// reconcileListeners starts a session listener for every session lacking
// one, and stops any listener whose session no longer exists (new-session/
// kill-session run through the same post-command reconcile pass
// reconcilePanes uses for ptys, since neither the dispatcher nor
// session.Manager know about TCP listeners). ControlSessionName is always
// treated as live since it isn't a session.Manager entry.
func (s *Server) reconcileListeners() {
	live := map[string]bool{ControlSessionName: true}
	for _, sess := range s.Manager.ListSessions() {
		live[sess.Name] = true
		s.listenerMu.Lock()
		_, exists := s.listeners[sess.Name]
		s.listenerMu.Unlock()
		if !exists {
			if err := s.StartSession(sess.Name); err != nil {
				slog.Warn("[server] start session listener failed", "session", sess.Name, "error", err)
			}
		}
	}
	s.listenerMu.Lock()
	var stale []string
	for name := range s.listeners {
		if !live[name] {
			stale = append(stale, name)
		}
	}
	s.listenerMu.Unlock()
	for _, name := range stale {
		s.StopSession(name)
	}
}

func (s *Server) acceptLoop(sl *sessionListener) {
	defer sl.wg.Done()
	consecutiveErrors := 0
	for {
		conn, err := sl.ln.Accept()
		if err != nil {
			select {
			case <-sl.cancel:
				return
			default:
				consecutiveErrors++
				if consecutiveErrors > 10 {
					slog.Warn("[server] accept loop repeated failures", "session", sl.session, "error", err)
					time.Sleep(500 * time.Millisecond)
				}
				continue
			}
		}
		consecutiveErrors = 0

		select {
		case sl.slots <- struct{}{}:
		default:
			conn.Write([]byte("server busy\n"))
			conn.Close()
			continue
		}

		sl.wg.Add(1)
		go func() {
			defer sl.wg.Done()
			defer func() { <-sl.slots }()
			s.handleConn(sl, conn)
		}()
	}
}
