package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/qarray/internal/cache"
)

var _ cache.Store = (*Store)(nil)

// Get returns the statement stored under a cache key.
func (s *Store) Get(key string) (string, bool, error) {
	return s.GetContext(context.Background(), key)
}

// GetContext is Get with a caller-supplied context.
func (s *Store) GetContext(ctx context.Context, key string) (string, bool, error) {
	var stmt string
	err := s.db.QueryRowContext(ctx, `
		SELECT statement FROM compiled_filters WHERE key_hash = ?
	`, KeyHash(key)).Scan(&stmt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read compiled filter: %w", err)
	}
	return stmt, true, nil
}

// Put stores a statement under a cache key, replacing any previous value.
func (s *Store) Put(key, statement string) error {
	return s.PutContext(context.Background(), key, statement)
}

// PutContext is Put with a caller-supplied context.
//
// The key's table and source halves are stored alongside the hash so the
// database can be inspected with plain SQL.
func (s *Store) PutContext(ctx context.Context, key, statement string) error {
	table, source, _ := strings.Cut(key, "\x00")

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compiled_filters (key_hash, table_name, source, statement, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM compiled_filters))
		ON CONFLICT(key_hash) DO UPDATE SET statement = excluded.statement
	`, KeyHash(key), table, source, statement)
	if err != nil {
		return fmt.Errorf("write compiled filter: %w", err)
	}
	return nil
}

// Len returns the number of stored statements, or 0 if the count fails.
func (s *Store) Len() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM compiled_filters`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Filter is one stored statement.
type Filter struct {
	Table     string
	Source    string
	Statement string
}

// Filters returns the stored statements for a table in insertion order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) Filters(ctx context.Context, table string) ([]Filter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, source, statement
		FROM compiled_filters
		WHERE table_name = ?
		ORDER BY seq ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query compiled filters: %w", err)
	}
	defer rows.Close()

	filters := []Filter{}
	for rows.Next() {
		var f Filter
		if err := rows.Scan(&f.Table, &f.Source, &f.Statement); err != nil {
			return nil, fmt.Errorf("scan compiled filter: %w", err)
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compiled filters: %w", err)
	}
	return filters, nil
}
