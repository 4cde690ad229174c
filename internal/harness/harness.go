package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/roach88/probe/internal/expect"
)

// DefaultTimeout is the maximum wait of a case or hook frame when no other
// timeout is configured.
const DefaultTimeout = 5 * time.Second

// Runner executes registries. A Runner holds configuration only; every Run
// gets its own clock and report.
type Runner struct {
	logger  *slog.Logger
	console *Console
	timeout time.Duration
	filter  string
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostics logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConsole sets the writer behind T.Log. Defaults to io.Discard.
func WithConsole(w io.Writer) Option {
	return func(r *Runner) {
		r.console = NewConsole(w)
	}
}

// WithDefaultTimeout sets the maximum wait of every frame without its own
// timeout. Non-positive values keep DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithFilter selects cases by full name. A pattern containing glob
// metacharacters is matched with path.Match semantics; any other pattern
// selects names containing it.
func WithFilter(pattern string) Option {
	return func(r *Runner) {
		r.filter = pattern
	}
}

// WithNow replaces the wall clock used for durations.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		console: NewConsole(nil),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes reg with a runner built from opts.
func Run(ctx context.Context, reg *Registry, opts ...Option) (*Report, error) {
	return NewRunner(opts...).Run(ctx, reg)
}

// Run executes every selected case of reg and returns the report.
//
// Execution is sequential and depth first in declaration order. For each
// suite: before-all hooks once, then for each case the before-each hooks
// (outer suites first), the body, and the after-each hooks (inner suites
// first); after the last child, the after-all hooks. A failure is contained
// in the case it happens in; a before-all failure fails every case under
// its suite without running them.
//
// The only error returned is an invalid filter; case failures are reported.
func (r *Runner) Run(ctx context.Context, reg *Registry) (*Report, error) {
	if r.filter != "" && hasMeta(r.filter) {
		if _, err := path.Match(r.filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", r.filter, err)
		}
	}

	ex := &execution{
		runner:   r,
		clock:    NewClock(),
		report:   NewReport(),
		selected: make(map[*Case]bool),
	}
	for _, c := range reg.Cases() {
		if r.matches(c.FullName()) {
			ex.selected[c] = true
		}
	}

	r.logger.Info("run starting", "cases", len(ex.selected))
	start := r.now()

	ex.runSuite(ctx, reg.Suite, nil)

	ex.report.Duration = r.now().Sub(start)
	r.logger.Info("run finished",
		"passed", ex.report.Passed,
		"failed", ex.report.Failed,
		"suite_failures", len(ex.report.SuiteFailures),
	)
	return ex.report, nil
}

func (r *Runner) matches(fullName string) bool {
	if r.filter == "" {
		return true
	}
	if hasMeta(r.filter) {
		ok, _ := path.Match(r.filter, fullName)
		return ok
	}
	return strings.Contains(fullName, r.filter)
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}

// execution is the state of one Run.
type execution struct {
	runner   *Runner
	clock    *Clock
	report   *Report
	selected map[*Case]bool
}

// frame is one hook or body invocation.
type frame struct {
	kind     string // Timing name or "case"
	suite    []string
	caseName string
	name     string
	fn       AsyncFunc
	timeout  time.Duration
}

func (ex *execution) runSuite(ctx context.Context, s *Suite, chain []*Suite) {
	if !ex.hasSelected(s) {
		return
	}
	chain = append(chain[:len(chain):len(chain)], s)
	suitePath := s.Path()

	var blocked error
	for _, h := range s.hooks[BeforeAll] {
		if err := ex.runHook(ctx, BeforeAll, s, nil, h); err != nil {
			blocked = &HookError{Timing: BeforeAll, Suite: suitePath, Err: err}
			ex.runner.logger.Warn("before_all hook failed, skipping suite cases",
				"suite", strings.Join(suitePath, PathSeparator),
				"error", err,
			)
			break
		}
	}

	for _, child := range s.children {
		switch n := child.(type) {
		case *Case:
			if !ex.selected[n] {
				continue
			}
			if blocked != nil {
				ex.record(n, blocked, 0)
				continue
			}
			ex.runCase(ctx, n, chain)
		case *Suite:
			if blocked != nil {
				ex.failAll(n, blocked)
				continue
			}
			ex.runSuite(ctx, n, chain)
		}
	}

	for _, h := range s.hooks[AfterAll] {
		if err := ex.runHook(ctx, AfterAll, s, nil, h); err != nil {
			hookErr := &HookError{Timing: AfterAll, Suite: suitePath, Err: err}
			ex.report.AddSuiteFailure(SuiteFailure{
				Suite:   suitePath,
				Timing:  AfterAll.String(),
				Kind:    classify(hookErr),
				Message: hookErr.Error(),
			})
		}
	}
}

func (ex *execution) runCase(ctx context.Context, c *Case, chain []*Suite) {
	start := ex.runner.now()

	var failure error
	for _, s := range chain {
		for _, h := range s.hooks[BeforeEach] {
			if failure != nil {
				break
			}
			if err := ex.runHook(ctx, BeforeEach, s, c, h); err != nil {
				failure = &HookError{Timing: BeforeEach, Suite: s.Path(), Err: err}
			}
		}
	}

	if failure == nil {
		timeout := c.timeout
		if timeout <= 0 {
			timeout = ex.runner.timeout
		}
		failure = ex.runFrame(ctx, frame{
			kind:     "case",
			suite:    c.suite.Path(),
			caseName: c.name,
			name:     c.FullName(),
			fn:       c.body,
			timeout:  timeout,
		})
	}

	// After-each hooks run even when the case already failed.
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		for _, h := range s.hooks[AfterEach] {
			err := ex.runHook(ctx, AfterEach, s, c, h)
			if err != nil && failure == nil {
				failure = &HookError{Timing: AfterEach, Suite: s.Path(), Err: err}
			}
		}
	}

	ex.record(c, failure, ex.runner.now().Sub(start))
}

func (ex *execution) runHook(ctx context.Context, timing Timing, s *Suite, c *Case, fn AsyncFunc) error {
	f := frame{
		kind:    timing.String(),
		suite:   s.Path(),
		fn:      fn,
		timeout: ex.runner.timeout,
	}
	f.name = timing.String() + " hook"
	if len(f.suite) > 0 {
		f.name += " of " + strings.Join(f.suite, PathSeparator)
	}
	if c != nil {
		f.caseName = c.name
		f.name += " for " + c.FullName()
	}
	return ex.runFrame(ctx, f)
}

// runFrame runs f unless the run is already cancelled, and records the
// outcome in the trace.
func (ex *execution) runFrame(ctx context.Context, f frame) error {
	err := ctx.Err()
	if err == nil {
		err = ex.awaitFrame(ctx, f)
	}

	ex.report.AddTrace(TraceEvent{
		Seq:   ex.clock.Next(),
		Type:  f.kind,
		Suite: strings.Join(f.suite, PathSeparator),
		Case:  f.caseName,
		OK:    err == nil,
	})
	ex.runner.logger.Debug("frame finished",
		"type", f.kind,
		"frame", f.name,
		"ok", err == nil,
	)
	return err
}

// awaitFrame runs f on its own goroutine and blocks until it settles, times
// out, or ctx is cancelled. A timed-out frame keeps running until it
// observes its cancelled context; its outcome is ignored.
func (ex *execution) awaitFrame(ctx context.Context, f frame) error {
	fctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	t := newT(fctx, f.name, ex.runner.console)
	done := make(chan error, 1)
	go func() {
		done <- t.exec(f.fn)
	}()

	var err error
	select {
	case err = <-done:
	case <-fctx.Done():
		err = fctx.Err()
	}

	// A frame that settles only after its deadline has still timed out.
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() == nil && errors.Is(fctx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Frame: f.name, After: f.timeout}
		}
	}
	return err
}

func (ex *execution) record(c *Case, err error, d time.Duration) {
	res := CaseResult{
		Suite:    c.suite.Path(),
		Name:     c.name,
		Status:   StatusPassed,
		Duration: d,
	}

	if err != nil {
		res.Status = StatusFailed
		res.Kind = classify(err)
		res.Message = err.Error()

		var f *expect.Failure
		if errors.As(err, &f) {
			res.Expected = f.Expected
			res.Actual = f.Actual
		}
	}

	ex.report.AddCase(res)
	ex.runner.logger.Info("case finished",
		"case", res.FullName(),
		"status", res.Status,
		"kind", res.Kind,
	)
}

func (ex *execution) failAll(s *Suite, err error) {
	for _, c := range s.Cases() {
		if ex.selected[c] {
			ex.record(c, err, 0)
		}
	}
}

func (ex *execution) hasSelected(s *Suite) bool {
	for _, c := range s.Cases() {
		if ex.selected[c] {
			return true
		}
	}
	return false
}
