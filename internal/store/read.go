package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/probe/internal/harness"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// ListRuns returns up to limit runs, most recent first. A non-positive
// limit returns every run.
//
// Returns an empty slice (not nil) when nothing has been recorded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ns, filter, passed, failed, suite_failures
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the summary row of run id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ns, filter, passed, failed, suite_failures
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	return run, err
}

// ReadCases returns the case results of run id in execution order.
func (s *Store) ReadCases(ctx context.Context, runID string) ([]harness.CaseResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suite, name, status, kind, message, expected, actual, duration_ns
		FROM case_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	cases := []harness.CaseResult{}
	for rows.Next() {
		var (
			c             harness.CaseResult
			suite         string
			status, kind  string
			durationNanos int64
		)
		if err := rows.Scan(&suite, &c.Name, &status, &kind, &c.Message, &c.Expected, &c.Actual, &durationNanos); err != nil {
			return nil, fmt.Errorf("scan case result: %w", err)
		}
		if c.Suite, err = unmarshalSuite(suite); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		c.Status = harness.Status(status)
		c.Kind = harness.FailureKind(kind)
		c.Duration = time.Duration(durationNanos)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case results: %w", err)
	}
	return cases, nil
}

// ReadSuiteFailures returns the after-all failures of run id.
func (s *Store) ReadSuiteFailures(ctx context.Context, runID string) ([]harness.SuiteFailure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suite, timing, kind, message
		FROM suite_failures
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query suite failures: %w", err)
	}
	defer rows.Close()

	failures := []harness.SuiteFailure{}
	for rows.Next() {
		var (
			f     harness.SuiteFailure
			suite string
			kind  string
		)
		if err := rows.Scan(&suite, &f.Timing, &kind, &f.Message); err != nil {
			return nil, fmt.Errorf("scan suite failure: %w", err)
		}
		if f.Suite, err = unmarshalSuite(suite); err != nil {
			return nil, err
		}
		f.Kind = harness.FailureKind(kind)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suite failures: %w", err)
	}
	return failures, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run           Run
		startedNanos  int64
		durationNanos int64
	)
	err := row.Scan(&run.ID, &startedNanos, &durationNanos, &run.Filter, &run.Passed, &run.Failed, &run.SuiteFailures)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedNanos).UTC()
	run.Duration = time.Duration(durationNanos)
	return run, nil
}

func unmarshalSuite(s string) ([]string, error) {
	var path []string
	if err := json.Unmarshal([]byte(s), &path); err != nil {
		return nil, fmt.Errorf("decode suite path: %w", err)
	}
	if len(path) == 0 {
		return nil, nil
	}
	return path, nil
}
