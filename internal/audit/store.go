package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mugo-bistro/mugo/internal/db"
)

// Store persists the menu change history in the audit_entries table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log appends entry to the trail, assigning a UUID when ID is empty.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if !entry.Action.Valid() {
		return fmt.Errorf("unknown audit action %q", entry.Action)
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, actor_id, action, source, summary,
			tab_count, item_count, previous_hash, new_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, string(entry.Action), string(entry.Source), entry.Summary,
		entry.TabCount, entry.ItemCount, nullable(entry.PreviousHash), nullable(entry.NewHash),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// GetByID returns one entry, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectEntries+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// QueryFilter narrows Query. Zero fields match everything.
type QueryFilter struct {
	ActorID string
	Action  Action
	Source  Source
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
}

func (f QueryFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.ActorID != "" {
		add("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.Source != "" {
		add("source = ?", string(f.Source))
	}
	if f.Since != nil {
		add("timestamp >= ?", f.Since.UTC().Format(time.DateTime))
	}
	if f.Until != nil {
		add("timestamp <= ?", f.Until.UTC().Format(time.DateTime))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const selectEntries = `SELECT id, timestamp, actor_id, action, source, summary,
	tab_count, item_count, previous_hash, new_hash FROM audit_entries`

// Query returns the matching entries, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.where()
	query := selectEntries + where + " ORDER BY timestamp DESC, rowid DESC"

	// OFFSET is only valid after a LIMIT in SQLite.
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("reading audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Latest returns the most recent entry, or nil when the trail is empty.
func (s *Store) Latest(ctx context.Context) (*Entry, error) {
	entries, err := s.Query(ctx, QueryFilter{Limit: 1})
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// DeleteBefore prunes entries older than before and reports how many went.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc rowScanner) (*Entry, error) {
	var (
		e              Entry
		action, source string
		ts             string
		prev, next     sql.NullString
	)
	if err := sc.Scan(
		&e.ID, &ts, &e.ActorID, &action, &source, &e.Summary,
		&e.TabCount, &e.ItemCount, &prev, &next,
	); err != nil {
		return nil, err
	}
	e.Action = Action(action)
	e.Source = Source(source)
	e.PreviousHash = prev.String
	e.NewHash = next.String

	// modernc returns DATETIME defaults as text; either layout may appear.
	for _, layout := range []string{time.DateTime, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			e.Timestamp = t
			break
		}
	}
	return &e, nil
}
