package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CheckRun records one `qarray check` invocation over a catalog.
type CheckRun struct {
	ID       string
	Catalog  string
	Entries  int
	Failures int
	Results  []CheckResult
}

// CheckResult is the outcome for one named filter. Code is empty on
// success.
type CheckResult struct {
	Table     string
	Filter    string
	Statement string
	Code      string
	Message   string
}

// NewRunID generates a time-sortable UUIDv7 run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WriteCheckRun inserts a run and its results in one transaction.
// Run IDs are unique; writing the same ID twice fails.
func (s *Store) WriteCheckRun(ctx context.Context, run CheckRun) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write check run: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO check_runs (id, catalog, entries, failures, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM check_runs))
	`, run.ID, run.Catalog, run.Entries, run.Failures)
	if err != nil {
		return fmt.Errorf("write check run: %w", err)
	}

	for _, r := range run.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO check_results (run_id, table_name, filter_name, statement, error_code, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, r.Table, r.Filter, nullString(r.Statement), nullString(r.Code), nullString(r.Message))
		if err != nil {
			return fmt.Errorf("write check result %s.%s: %w", r.Table, r.Filter, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit check run: %w", err)
	}
	return nil
}

// ReadCheckRun returns a run and its results ordered by table and filter.
// Returns (nil, nil) if the run does not exist.
func (s *Store) ReadCheckRun(ctx context.Context, id string) (*CheckRun, error) {
	run := &CheckRun{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT catalog, entries, failures FROM check_runs WHERE id = ?
	`, id).Scan(&run.Catalog, &run.Entries, &run.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read check run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, filter_name, statement, error_code, message
		FROM check_results
		WHERE run_id = ?
		ORDER BY table_name COLLATE BINARY ASC, filter_name COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	run.Results = []CheckResult{}
	for rows.Next() {
		var r CheckResult
		var stmt, code, message sql.NullString
		if err := rows.Scan(&r.Table, &r.Filter, &stmt, &code, &message); err != nil {
			return nil, fmt.Errorf("scan check result: %w", err)
		}
		r.Statement, r.Code, r.Message = stmt.String, code.String, message.String
		run.Results = append(run.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check results: %w", err)
	}
	return run, nil
}

// LatestCheckRunID returns the most recently written run ID, or "" if no
// run has been recorded.
func (s *Store) LatestCheckRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM check_runs ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest check run: %w", err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
