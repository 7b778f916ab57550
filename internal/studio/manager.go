package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fitstudio/internal/domain"
)

// Manager owns the live session registry. Sessions expire after sitting
// idle for the configured TTL; any studio operation against a session
// refreshes its clock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{sessions: make(map[string]*Session), ttl: ttl}
}

// Create registers a fresh session and returns it.
func (m *Manager) Create(now time.Time) *Session {
	sess := newSession(uuid.NewString(), now)
	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session with the given id and refreshes its idle clock.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.touch(time.Now())
	return sess, nil
}

// Remove unregisters the session and returns it for teardown.
func (m *Manager) Remove(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return sess, ok
}

// Sweep unregisters every session idle beyond the TTL and returns them for
// teardown.
func (m *Manager) Sweep(now time.Time) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.expired(now, m.ttl) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	return expired
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
