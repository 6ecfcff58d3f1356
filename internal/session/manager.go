// ABOUTME: Session manager owning the anonymous/authenticated state machine
// ABOUTME: Handles login/logout transitions, session resolution, and auth cookies

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mbeier1406/chaos-portal/internal/auth"
	"github.com/mbeier1406/chaos-portal/internal/config"
	"github.com/mbeier1406/chaos-portal/internal/store"
)

// LoginFailedMessage is the fixed user-facing message for any failed login.
// It never reveals whether the username or the password was wrong.
const LoginFailedMessage = "Invalid username or password."

// AuthCookieMaxAge is the lifetime of the authentication cookie set on a
// successful login.
const AuthCookieMaxAge = 3600 // seconds

// usernameAttribute is the session attribute recording the logged-in user.
const usernameAttribute = "username"

// Manager resolves sessions from requests and drives the authentication
// state machine. Login and logout for the same session are serialized by a
// per-session mutex; concurrent requests for different sessions do not
// contend.
type Manager struct {
	store     store.SessionStore
	principal auth.Principal
	cfg       config.SessionConfig
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a session manager backed by the given store.
func NewManager(st store.SessionStore, principal auth.Principal, cfg config.SessionConfig) *Manager {
	return &Manager{
		store:     st,
		principal: principal,
		cfg:       cfg,
		logger:    slog.Default().With("component", "session"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Resolve returns the session for the incoming request, creating a fresh
// anonymous session (and setting the session cookie) when the request
// carries no session cookie or the referenced session is gone or expired.
// LastAccess is touched on every resolve.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (*store.Session, error) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil && cookie.Value != "" {
		sess, err := m.store.GetSession(ctx, cookie.Value)
		if err == nil {
			sess.Touch(time.Now().UTC())
			if err := m.store.SaveSession(ctx, sess); err != nil {
				return nil, fmt.Errorf("touching session: %w", err)
			}
			return sess, nil
		}
		if !errors.Is(err, store.ErrSessionNotFound) {
			return nil, fmt.Errorf("loading session: %w", err)
		}
		// Expired or unknown: fall through and start over.
	}

	return m.begin(ctx, w)
}

// begin creates a new anonymous session and sets the session cookie.
func (m *Manager) begin(ctx context.Context, w http.ResponseWriter) (*store.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session ID: %w", err)
	}

	now := time.Now().UTC()
	sess := &store.Session{
		ID:          id,
		Attributes:  map[string]string{},
		CreatedAt:   now,
		LastAccess:  now,
		ExpiresAt:   now.Add(m.cfg.IdleTimeout),
		IdleTimeout: m.cfg.IdleTimeout,
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   !m.cfg.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	m.logger.Debug("session started", "session_id", sess.ID)
	return sess, nil
}

// Login attempts the ANONYMOUS -> AUTHENTICATED transition. On success the
// session records the username, clears any previous error, and the auth
// cookie is issued; on failure the session stays anonymous with the fixed
// error message set. Returns whether the login succeeded.
//
// The submitted password is never logged.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *store.Session, username, password string) (bool, error) {
	lock := m.sessionLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	m.logAttempt(sess, username, r)

	if !auth.Verify(username, password, m.principal) {
		sess.LoggedIn = false
		sess.Username = ""
		sess.LastError = LoginFailedMessage
		if err := m.store.SaveSession(ctx, sess); err != nil {
			return false, fmt.Errorf("saving session: %w", err)
		}
		m.logger.Warn("login failed", "username", username, "session_id", sess.ID)
		return false, nil
	}

	sess.LoggedIn = true
	sess.Username = username
	sess.LastError = ""
	sess.Attributes[usernameAttribute] = username
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return false, fmt.Errorf("saving session: %w", err)
	}

	m.setAuthCookie(w, username, AuthCookieMaxAge)
	m.logger.Info("login successful", "username", username, "session_id", sess.ID)
	return true, nil
}

// Logout performs the AUTHENTICATED -> ANONYMOUS transition: all state
// fields are cleared, the username attribute is removed, and the auth
// cookie is reissued with zero lifetime.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, sess *store.Session) error {
	lock := m.sessionLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	username := sess.Username
	sess.LoggedIn = false
	sess.Username = ""
	sess.LastError = ""
	delete(sess.Attributes, usernameAttribute)

	if err := m.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	m.clearAuthCookie(w)
	m.logger.Info("logout", "username", username, "session_id", sess.ID)
	return nil
}

// SetAttribute stores a key/value pair in the session's attribute set and
// persists the change.
func (m *Manager) SetAttribute(ctx context.Context, sess *store.Session, key, value string) error {
	sess.Attributes[key] = value
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// logAttempt emits the diagnostic line for every login attempt: attempted
// username, session identity and timestamps, idle timeout, the full
// attribute set, and the full request cookie set. A request with no cookies
// yields an empty cookie list, never an error.
func (m *Manager) logAttempt(sess *store.Session, username string, r *http.Request) {
	cookies := r.Cookies()
	cookieNames := make([]string, 0, len(cookies))
	for _, c := range cookies {
		cookieNames = append(cookieNames, c.Name+"="+c.Value)
	}

	m.logger.Info("login attempt",
		"username", username,
		"session_id", sess.ID,
		"created_at", sess.CreatedAt,
		"last_access", sess.LastAccess,
		"idle_timeout", sess.IdleTimeout,
		"attributes", sess.Attributes,
		"cookies", cookieNames,
	)
}

// setAuthCookie issues the authentication cookie. The cookie records the
// last successful login's username for the client; it is not a trust
// credential and is never used to re-authenticate a session.
func (m *Manager) setAuthCookie(w http.ResponseWriter, username string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.AuthCookieName,
		Value:    username,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !m.cfg.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookie reissues the auth cookie with zero lifetime.
// net/http serializes MaxAge < 0 as "Max-Age=0".
func (m *Manager) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !m.cfg.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionLock returns the mutex serializing state transitions for one
// session. Entries are small and bounded by the number of live sessions.
func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

// Sweep removes expired sessions and their lock entries. Called
// periodically by the server loop.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	removed, err := m.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}

	// Drop lock entries for sessions the store no longer knows.
	m.mu.Lock()
	for id := range m.locks {
		if _, err := m.store.GetSession(ctx, id); errors.Is(err, store.ErrSessionNotFound) {
			delete(m.locks, id)
		}
	}
	m.mu.Unlock()

	return removed, nil
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
