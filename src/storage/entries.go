package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/elee1766/chatbox/src/kv"
	"github.com/georgysavva/scany/v2/sqlscan"
)

var _ kv.Store = (*DB)(nil)

// GetEntry retrieves an entry by key. It returns nil when the key is absent.
func GetEntry(ctx context.Context, db sqlscan.Querier, key string) (*Entry, error) {
	query := `SELECT key, value, created_at, updated_at FROM kv_entries WHERE key = ?`
	var e Entry
	err := sqlscan.Get(ctx, db, &e, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &e, nil
}

// PutEntry inserts or replaces an entry, keeping the original created_at
func PutEntry(ctx context.Context, db Execer, entry *Entry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := `INSERT INTO kv_entries (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, entry.Key, entry.Value, entry.CreatedAt, entry.UpdatedAt)
	return err
}

// Get implements kv.Store
func (d *DB) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	e, err := GetEntry(context.Background(), d.db, key)
	if err != nil {
		return "", false, err
	}
	if e == nil {
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set implements kv.Store
func (d *DB) Set(key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	return PutEntry(context.Background(), d.db, &Entry{Key: key, Value: value})
}
