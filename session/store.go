// Package session persists the signed-in Very Goods user between runs.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/s0up4200/verygoods/verygoods"
)

var (
	// ErrNotFound indicates no session has been saved
	ErrNotFound = errors.New("no saved session")
	// ErrStoreClosed indicates the store was used after Close
	ErrStoreClosed = errors.New("session store is closed")
)

// Store keeps authentications in SQLite. The most recently saved one is the
// current session.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New opens or creates the session database at dbPath
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	return newStore(db)
}

// NewInMemory creates a store that lives only as long as the process
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			token_value TEXT NOT NULL,
			token_expires DATETIME,
			session_value TEXT NOT NULL,
			session_expires DATETIME,
			created_at DATETIME NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save stores auth as the current session, replacing any earlier session
// for the same username.
func (s *Store) Save(ctx context.Context, auth *verygoods.Authentication) error {
	if auth == nil || auth.Token == nil || auth.Session == nil {
		return fmt.Errorf("incomplete authentication")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, username, token_value, token_expires, session_value, session_expires, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			token_value = excluded.token_value,
			token_expires = excluded.token_expires,
			session_value = excluded.session_value,
			session_expires = excluded.session_expires,
			updated_at = excluded.updated_at
	`,
		uuid.New().String(), auth.Username,
		auth.Token.Value, nullTime(auth.Token.Expires),
		auth.Session.Value, nullTime(auth.Session.Expires),
		now, now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the current session
func (s *Store) Load(ctx context.Context) (*verygoods.Authentication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		auth                         verygoods.Authentication
		tokenValue, sessionValue     string
		tokenExpires, sessionExpires sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT username, token_value, token_expires, session_value, session_expires
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&auth.Username, &tokenValue, &tokenExpires, &sessionValue, &sessionExpires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	auth.Token = cookie(verygoods.TokenCookieName, tokenValue, tokenExpires)
	auth.Session = cookie(verygoods.SessionCookieName, sessionValue, sessionExpires)
	return &auth, nil
}

// Delete removes every saved session
func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// Close closes the store
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func cookie(name, value string, expires sql.NullTime) *http.Cookie {
	c := &http.Cookie{Name: name, Value: value}
	if expires.Valid {
		c.Expires = expires.Time
	}
	return c
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
