package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BeginRun records the start of an action and returns its run.
func (s *Store) BeginRun(ctx context.Context, action string) (*Run, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, errors.New("action is required")
	}
	run := &Run{
		ID:        uuid.NewString(),
		Action:    action,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, action, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Action, run.Status, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run as succeeded, or failed when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, run *Run, runErr error) error {
	if run == nil {
		return nil
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = RunSucceeded
	run.ErrorMessage = ""
	if runErr != nil {
		run.Status = RunFailed
		run.ErrorMessage = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		run.Status, now.Format(time.RFC3339Nano), nullableString(run.ErrorMessage), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// RecentRuns lists the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, status, started_at, finished_at, error_message
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished sql.NullString
			message  sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Action, &run.Status, &started, &finished, &message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		if finished.Valid {
			t := parseTime(finished.String)
			run.FinishedAt = &t
		}
		run.ErrorMessage = message.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
