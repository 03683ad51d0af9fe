package session

import (
	"fmt"

	"psmux/internal/errs"
)

// SetBuffer inserts data as a new paste buffer at index 0 (newest-first,
// spec §3). name == "" auto-generates "bufferNNNN" from a counter derived
// from the session's current buffer count, matching tmux's naming.
func (m *Manager) SetBuffer(sessionName, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if name == "" {
		name = fmt.Sprintf("buffer%04d", len(sess.Buffers))
		for sess.findBuffer(name) != nil {
			name = fmt.Sprintf("buffer%04d", len(sess.Buffers)+1)
		}
	}
	sess.Buffers = removeBuffer(sess.Buffers, name)
	buf := &PasteBuffer{Name: name, Data: append([]byte(nil), data...)}
	sess.Buffers = append([]*PasteBuffer{buf}, sess.Buffers...)
	return name, nil
}

// DeleteBuffer removes a named buffer, or the newest (index 0) when name
// is empty.
func (m *Manager) DeleteBuffer(sessionName, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if len(sess.Buffers) == 0 {
		return fmt.Errorf("no buffers: %w", errs.ErrNotFound)
	}
	if name == "" {
		sess.Buffers = sess.Buffers[1:]
		return nil
	}
	if sess.findBuffer(name) == nil {
		return fmt.Errorf("buffer %s: %w", name, errs.ErrNotFound)
	}
	sess.Buffers = removeBuffer(sess.Buffers, name)
	return nil
}

// ShowBuffer returns a buffer's contents by name, or the newest when name
// is empty.
func (m *Manager) ShowBuffer(sessionName, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	if len(sess.Buffers) == 0 {
		return nil, fmt.Errorf("no buffers: %w", errs.ErrNotFound)
	}
	if name == "" {
		return sess.Buffers[0].Data, nil
	}
	if buf := sess.findBuffer(name); buf != nil {
		return buf.Data, nil
	}
	return nil, fmt.Errorf("buffer %s: %w", name, errs.ErrNotFound)
}

// ListBuffers returns every buffer, newest first.
func (m *Manager) ListBuffers(sessionName string) ([]*PasteBuffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionName]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionName, errs.ErrNotFound)
	}
	return append([]*PasteBuffer(nil), sess.Buffers...), nil
}

func (s *Session) findBuffer(name string) *PasteBuffer {
	for _, b := range s.Buffers {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func removeBuffer(buffers []*PasteBuffer, name string) []*PasteBuffer {
	out := make([]*PasteBuffer, 0, len(buffers))
	for _, b := range buffers {
		if b.Name != name {
			out = append(out, b)
		}
	}
	return out
}
