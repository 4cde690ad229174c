package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/probe/internal/harness"
)

// Run is the summary row of one recorded run.
type Run struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Filter        string        `json:"filter,omitempty"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	SuiteFailures int           `json:"suite_failures"`
}

// OK reports whether the run had no failures.
func (r Run) OK() bool {
	return r.Failed == 0 && r.SuiteFailures == 0
}

// Total is the number of cases in the run.
func (r Run) Total() int {
	return r.Passed + r.Failed
}

// WriteRun records rep under id in a single transaction and returns the
// summary row. A duplicate id is an error.
func (s *Store) WriteRun(ctx context.Context, id string, startedAt time.Time, filter string, rep *harness.Report) (Run, error) {
	run := Run{
		ID:            id,
		StartedAt:     startedAt.UTC(),
		Duration:      rep.Duration,
		Filter:        filter,
		Passed:        rep.Passed,
		Failed:        rep.Failed,
		SuiteFailures: len(rep.SuiteFailures),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ns, filter, passed, failed, suite_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UnixNano(),
		int64(run.Duration),
		run.Filter,
		run.Passed,
		run.Failed,
		run.SuiteFailures,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	for i, c := range rep.Cases {
		suite, err := marshalSuite(c.Suite)
		if err != nil {
			return Run{}, fmt.Errorf("write run: case %q: %w", c.FullName(), err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results
			(run_id, seq, suite, name, status, kind, message, expected, actual, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			suite,
			c.Name,
			string(c.Status),
			string(c.Kind),
			c.Message,
			c.Expected,
			c.Actual,
			int64(c.Duration),
		)
		if err != nil {
			return Run{}, fmt.Errorf("write run: case %q: %w", c.FullName(), err)
		}
	}

	for i, f := range rep.SuiteFailures {
		suite, err := marshalSuite(f.Suite)
		if err != nil {
			return Run{}, fmt.Errorf("write run: suite failure: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO suite_failures (run_id, seq, suite, timing, kind, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			suite,
			f.Timing,
			string(f.Kind),
			f.Message,
		)
		if err != nil {
			return Run{}, fmt.Errorf("write run: suite failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// DeleteRun removes a run and, through the foreign keys, its results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %q: %w", id, ErrRunNotFound)
	}
	return nil
}

// marshalSuite encodes a suite path; the root is an empty array.
func marshalSuite(path []string) (string, error) {
	if path == nil {
		path = []string{}
	}
	b, err := json.Marshal(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
