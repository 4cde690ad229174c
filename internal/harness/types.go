package harness

import (
	"strings"
	"time"
)

// Timing identifies when a lifecycle hook runs.
type Timing int

const (
	BeforeAll Timing = iota
	AfterAll
	BeforeEach
	AfterEach
)

var timingNames = [...]string{
	BeforeAll:  "before_all",
	AfterAll:   "after_all",
	BeforeEach: "before_each",
	AfterEach:  "after_each",
}

// String returns the snake_case name used in reports and traces.
func (t Timing) String() string {
	if t < 0 || int(t) >= len(timingNames) {
		return "unknown"
	}
	return timingNames[t]
}

// Status is the recorded outcome of a case.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// FailureKind categorizes why a case failed.
type FailureKind string

const (
	KindNone      FailureKind = ""
	KindAssertion FailureKind = "assertion" // An expectation did not hold
	KindHook      FailureKind = "hook"      // A lifecycle hook failed
	KindTimeout   FailureKind = "timeout"   // A frame exceeded its allotted wait
	KindError     FailureKind = "error"     // The body panicked, rejected, or failed explicitly
)

// PathSeparator joins suite and case names into a full name.
const PathSeparator = " > "

// CaseResult is the outcome of one declared case.
type CaseResult struct {
	Suite    []string      `json:"suite,omitempty"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Kind     FailureKind   `json:"kind,omitempty"`
	Message  string        `json:"message,omitempty"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// FullName returns the suite path and case name joined by PathSeparator.
func (c CaseResult) FullName() string {
	return joinPath(c.Suite, c.Name)
}

// SuiteFailure records an after-all hook failure. Such failures happen after
// every case of the suite has been recorded, so they are reported against the
// suite rather than a case.
type SuiteFailure struct {
	Suite   []string    `json:"suite,omitempty"`
	Timing  string      `json:"timing"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// TraceEvent is one executed lifecycle step.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Type  string `json:"type"` // Timing name or "case"
	Suite string `json:"suite,omitempty"`
	Case  string `json:"case,omitempty"`
	OK    bool   `json:"ok"`
}

// Report is the outcome of a run.
type Report struct {
	Cases         []CaseResult   `json:"cases"`
	SuiteFailures []SuiteFailure `json:"suite_failures,omitempty"`
	Trace         []TraceEvent   `json:"trace"`
	Passed        int            `json:"passed"`
	Failed        int            `json:"failed"`
	Duration      time.Duration  `json:"duration_ns"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Cases: []CaseResult{},
		Trace: []TraceEvent{},
	}
}

// OK reports whether every case passed and no suite hook failed.
func (r *Report) OK() bool {
	return r.Failed == 0 && len(r.SuiteFailures) == 0
}

// Total returns the number of recorded cases.
func (r *Report) Total() int {
	return len(r.Cases)
}

// AddCase records a case outcome and updates the counters.
func (r *Report) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Status == StatusPassed {
		r.Passed++
	} else {
		r.Failed++
	}
}

// AddSuiteFailure records a suite-level hook failure.
func (r *Report) AddSuiteFailure(f SuiteFailure) {
	r.SuiteFailures = append(r.SuiteFailures, f)
}

// AddTrace appends an executed lifecycle step.
func (r *Report) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// Failures returns the failed cases in execution order.
func (r *Report) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	return out
}

func joinPath(suite []string, name string) string {
	if len(suite) == 0 {
		return name
	}
	return strings.Join(suite, PathSeparator) + PathSeparator + name
}
