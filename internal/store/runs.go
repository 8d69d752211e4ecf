package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Run is one recorded equivalence check.
type Run struct {
	Seq         int64
	RunID       string
	Fingerprint string
	Verdict     string
	Direction   string
	SchemaSQL   string
	Query1      string
	Query2      string
	Detail      string
	DurationMS  int64
}

// RecordRun appends r. Seq is assigned by the database; a duplicate
// RunID is silently ignored.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, fingerprint, verdict, direction, schema_sql, query1, query2, detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		r.RunID,
		r.Fingerprint,
		r.Verdict,
		r.Direction,
		r.SchemaSQL,
		r.Query1,
		r.Query2,
		r.Detail,
		r.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, oldest first. limit <= 0 means
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return s.queryRuns(ctx, `
			SELECT seq, run_id, fingerprint, verdict, direction, schema_sql, query1, query2, detail, duration_ms
			FROM runs
			ORDER BY seq ASC
		`)
	}
	return s.queryRuns(ctx, `
		SELECT * FROM (
			SELECT seq, run_id, fingerprint, verdict, direction, schema_sql, query1, query2, detail, duration_ms
			FROM runs
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, limit)
}

// RunsByFingerprint returns every run of the same inputs, oldest first.
func (s *Store) RunsByFingerprint(ctx context.Context, fingerprint string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT seq, run_id, fingerprint, verdict, direction, schema_sql, query1, query2, detail, duration_ms
		FROM runs
		WHERE fingerprint = ?
		ORDER BY seq ASC
	`, fingerprint)
}

// GetRun returns the run with the given id, or sql.ErrNoRows.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, run_id, fingerprint, verdict, direction, schema_sql, query1, query2, detail, duration_ms
		FROM runs
		WHERE run_id = ?
	`, runID)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.Seq,
		&r.RunID,
		&r.Fingerprint,
		&r.Verdict,
		&r.Direction,
		&r.SchemaSQL,
		&r.Query1,
		&r.Query2,
		&r.Detail,
		&r.DurationMS,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
