// Package prefs is a small key/value preference store backed by SQLite.
// It holds per-user UI state that is not configuration: last selected
// thread, collapsed panes, the composer draft.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is a preference store bound to one database file.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the preference database location next to the
// config file.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mossx", "prefs.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "mossx-prefs.db")
	}
	return filepath.Join(home, ".config", "mossx", "prefs.db")
}

// Open opens (and if needed creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prefs: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("prefs: get %q: %w", key, err)
	}
	return value, nil
}

// Set stores a value, replacing any previous one.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("prefs: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("prefs: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
