// Package localstore is the editor's local storage: a small key/value table
// holding the cached menu and the admin credential token between runs.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mugo-bistro/mugo/internal/db"
	"github.com/mugo-bistro/mugo/internal/menu"
)

// Well-known keys.
const (
	KeyMenu  = "mugo-menu-json"
	KeyAuth  = "mugo-admin-auth"
	KeyToken = "mugo-admin-token"
	// KeyRemoteToken holds the source repository API token.
	KeyRemoteToken = "mugo-remote-token"
)

// Store is a key/value store backed by SQLite.
type Store struct {
	db *db.DB
}

// New wraps an open database.
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// DefaultPath returns ~/.mugo/local.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mugo", "local.db"), nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// CachedMenu returns the locally cached document. A missing entry returns
// (nil, nil); an unparseable one returns the parse error.
func (s *Store) CachedMenu(ctx context.Context) (*menu.Document, error) {
	raw, ok, err := s.Get(ctx, KeyMenu)
	if err != nil || !ok {
		return nil, err
	}
	return menu.Parse([]byte(raw))
}

// SetCachedMenu stores doc in compact form.
func (s *Store) SetCachedMenu(ctx context.Context, doc *menu.Document) error {
	data, err := menu.MarshalCompact(doc)
	if err != nil {
		return err
	}
	return s.Set(ctx, KeyMenu, string(data))
}

// ClearCachedMenu drops the cached document.
func (s *Store) ClearCachedMenu(ctx context.Context) error {
	return s.Delete(ctx, KeyMenu)
}

// Token returns the stored credential token.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	tok, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || tok == "" {
		return "", false, err
	}
	return tok, true, nil
}

// Login stores the token and raises the auth flag.
func (s *Store) Login(ctx context.Context, token string) error {
	if err := s.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	return s.Set(ctx, KeyAuth, "1")
}

// LoggedIn reports whether the auth flag is set.
func (s *Store) LoggedIn(ctx context.Context) bool {
	v, ok, err := s.Get(ctx, KeyAuth)
	return err == nil && ok && v == "1"
}

// RemoteToken returns the stored repository API token.
func (s *Store) RemoteToken(ctx context.Context) (string, bool, error) {
	tok, ok, err := s.Get(ctx, KeyRemoteToken)
	if err != nil || !ok || tok == "" {
		return "", false, err
	}
	return tok, true, nil
}

// SetRemoteToken stores the repository API token.
func (s *Store) SetRemoteToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyRemoteToken, token)
}

// Logout removes the token and the auth flag.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.Delete(ctx, KeyAuth); err != nil {
		return err
	}
	return s.Delete(ctx, KeyToken)
}
