// ABOUTME: SQLite implementation of SessionStore using modernc.org/sqlite
// ABOUTME: Provides session persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite session store initialized", "path", path)
	return s, nil
}

// createSchema creates the sessions table if it doesn't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			logged_in INTEGER NOT NULL DEFAULT 0,
			username TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			attributes TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			last_access DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			idle_timeout_seconds INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at
			ON sessions(expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	attrs, err := json.Marshal(attributesOrEmpty(sess.Attributes))
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	query := `
		INSERT INTO sessions (id, logged_in, username, last_error, attributes, created_at, last_access, expires_at, idle_timeout_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		sess.ID,
		boolToInt(sess.LoggedIn),
		sess.Username,
		sess.LastError,
		string(attrs),
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.LastAccess.UTC().Format(time.RFC3339),
		sess.ExpiresAt.UTC().Format(time.RFC3339),
		int64(sess.IdleTimeout.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID)
	return nil
}

// GetSession retrieves a valid (non-expired) session.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, logged_in, username, last_error, attributes, created_at, last_access, expires_at, idle_timeout_seconds
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`

	var sess Session
	var loggedIn int
	var attrsJSON, createdAtStr, lastAccessStr, expiresAtStr string
	var idleSeconds int64
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, id, now).Scan(
		&sess.ID,
		&loggedIn,
		&sess.Username,
		&sess.LastError,
		&attrsJSON,
		&createdAtStr,
		&lastAccessStr,
		&expiresAtStr,
		&idleSeconds,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess.LoggedIn = loggedIn != 0
	sess.IdleTimeout = time.Duration(idleSeconds) * time.Second

	if err := json.Unmarshal([]byte(attrsJSON), &sess.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshaling attributes: %w", err)
	}

	if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.LastAccess, err = time.Parse(time.RFC3339, lastAccessStr); err != nil {
		return nil, fmt.Errorf("parsing last_access: %w", err)
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &sess, nil
}

// SaveSession persists the current state of an existing session.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	attrs, err := json.Marshal(attributesOrEmpty(sess.Attributes))
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	query := `
		UPDATE sessions
		SET logged_in = ?, username = ?, last_error = ?, attributes = ?, last_access = ?, expires_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		boolToInt(sess.LoggedIn),
		sess.Username,
		sess.LastError,
		string(attrs),
		sess.LastAccess.UTC().Format(time.RFC3339),
		sess.ExpiresAt.UTC().Format(time.RFC3339),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteSession deletes a session by ID.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired sessions", "count", rowsAffected)
	}
	return int(rowsAffected), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func attributesOrEmpty(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}
