// ABOUTME: In-memory SessionStore for tests and ephemeral serve mode
// ABOUTME: Map-backed with a mutex; copies records on the way in and out

package store

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore implements SessionStore with an in-process map. Sessions do
// not survive a restart; used by tests and `database.ephemeral: true`.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// CreateSession inserts a new session record.
func (m *MemoryStore) CreateSession(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

// GetSession returns a valid (non-expired) session by ID.
func (m *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return copySession(sess), nil
}

// SaveSession persists the current state of an existing session.
func (m *MemoryStore) SaveSession(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

// DeleteSession deletes a session by ID.
func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (m *MemoryStore) DeleteExpiredSessions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range m.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

func copySession(sess *Session) *Session {
	dup := *sess
	dup.Attributes = make(map[string]string, len(sess.Attributes))
	maps.Copy(dup.Attributes, sess.Attributes)
	return &dup
}
