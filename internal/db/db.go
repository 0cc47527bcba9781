// Package db opens the SQLite database holding the audit trail and the
// editor's local key/value store.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is a sql.DB that knows where it lives.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at path, creating its directory,
// and brings the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path, 0)
}

// OpenMemory opens a private in-memory database, mostly for tests.
func OpenMemory() (*DB, error) {
	// Each connection to :memory: sees its own database.
	return open(":memory:", ":memory:", 1)
}

func open(dsn, path string, maxConns int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// SchemaVersion reports how many migrations have been applied.
func (d *DB) SchemaVersion() (int, error) {
	var v int
	err := d.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies the migrations newer than the stored user_version, each
// in its own transaction.
func (d *DB) migrate() error {
	current, err := d.SchemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	for i := current; i < len(migrations); i++ {
		tx, err := d.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// migrations are append-only; never edit one that has shipped.
var migrations = []string{
	`CREATE TABLE audit_entries (
		id            TEXT PRIMARY KEY,
		timestamp     DATETIME NOT NULL DEFAULT (datetime('now')),
		actor_id      TEXT NOT NULL,
		action        TEXT NOT NULL,
		source        TEXT NOT NULL DEFAULT '',
		summary       TEXT NOT NULL DEFAULT '',
		tab_count     INTEGER NOT NULL DEFAULT 0,
		item_count    INTEGER NOT NULL DEFAULT 0,
		previous_hash TEXT,
		new_hash      TEXT
	);
	CREATE INDEX idx_audit_entries_timestamp ON audit_entries(timestamp);
	CREATE INDEX idx_audit_entries_action ON audit_entries(action);`,

	`CREATE TABLE kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);`,
}
