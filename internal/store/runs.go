package store

import (
	"context"
	"fmt"
	"time"
)

// Run records one executed scheduling run.
type Run struct {
	ID             string
	Seed           int64
	Mode           string
	LineMode       string
	Iterations     int
	Scheduled      int
	Failed         int
	CommitFailures int
	AverageQuality float64
	CreatedAt      time.Time
}

// RecordRun stores a run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO schedule_runs (id, seed, mode, line_mode, iterations, scheduled, failed,
		                            commit_failures, average_quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Seed, r.Mode, r.LineMode, r.Iterations, r.Scheduled, r.Failed,
		r.CommitFailures, r.AverageQuality, r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns the most recent runs first, at most limit of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, seed, mode, line_mode, iterations, scheduled, failed, commit_failures, average_quality, created_at
		 FROM schedule_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Seed, &r.Mode, &r.LineMode, &r.Iterations, &r.Scheduled,
			&r.Failed, &r.CommitFailures, &r.AverageQuality, &created); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
