// ABOUTME: Session record type and the SessionStore persistence interface
// ABOUTME: Implemented by SQLiteStore for serve mode and MemoryStore for tests

package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is one per-client session record. The authentication state fields
// (LoggedIn, Username, LastError) are mutated only by the session manager's
// login/logout transitions; the record itself is discarded when the session
// expires or is deleted.
type Session struct {
	ID          string
	LoggedIn    bool
	Username    string
	LastError   string
	Attributes  map[string]string
	CreatedAt   time.Time
	LastAccess  time.Time
	ExpiresAt   time.Time
	IdleTimeout time.Duration
}

// Anonymous reports whether the session has no authenticated user.
func (s *Session) Anonymous() bool {
	return !s.LoggedIn
}

// Touch advances LastAccess to now and pushes ExpiresAt out by the idle
// timeout. Callers persist the change via SaveSession.
func (s *Session) Touch(now time.Time) {
	s.LastAccess = now
	s.ExpiresAt = now.Add(s.IdleTimeout)
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *Session) error
	// GetSession returns a valid (non-expired) session by ID, or
	// ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)
	SaveSession(ctx context.Context, sess *Session) error
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes all expired sessions and returns the
	// number removed.
	DeleteExpiredSessions(ctx context.Context) (int, error)
	Close() error
}
