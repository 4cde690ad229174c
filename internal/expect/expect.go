package expect

import (
	"fmt"
	"regexp"
)

// Reporter receives matcher failures.
//
// The harness implements Reporter on its case handle; Fail is expected to
// record the failure and unwind the calling frame.
type Reporter interface {
	Fail(err error)
}

// Expectation wraps a produced value.
type Expectation struct {
	actual   any
	negated  bool
	reporter Reporter
}

// That returns an expectation that only returns failures.
func That(actual any) *Expectation {
	return &Expectation{actual: actual}
}

// With returns an expectation that also hands every failure to r.
func With(r Reporter, actual any) *Expectation {
	return &Expectation{actual: actual, reporter: r}
}

// Not returns a copy of the expectation with the next matcher negated.
func (e *Expectation) Not() *Expectation {
	return &Expectation{actual: e.actual, negated: !e.negated, reporter: e.reporter}
}

// ToBe checks identity: == for comparable values, reference identity for
// maps, slices, functions, channels and pointers.
func (e *Expectation) ToBe(expected any) error {
	return e.check(matcher{kind: Identity, name: "ToBe", expected: expected})
}

// ToEqual checks deep structural equality.
func (e *Expectation) ToEqual(expected any) error {
	return e.check(matcher{kind: DeepEqual, name: "ToEqual", expected: expected})
}

// ToContain checks that a string contains a substring, a slice or array
// contains an element, or a map (set) contains a key.
func (e *Expectation) ToContain(element any) error {
	return e.check(matcher{kind: Containment, name: "ToContain", expected: element})
}

// ToMatch checks a string against a pattern. A string pattern matches as a
// literal substring; a *regexp.Regexp matches as a regular expression.
func (e *Expectation) ToMatch(pattern any) error {
	m := matcher{kind: Pattern, name: "ToMatch", expected: pattern}

	switch p := pattern.(type) {
	case *regexp.Regexp:
		m.pattern = p
	case string:
		m.pattern = regexp.MustCompile(regexp.QuoteMeta(p))
	default:
		m.invalid = fmt.Sprintf("pattern must be a string or *regexp.Regexp, got %T", pattern)
	}

	return e.check(m)
}

// ToBeGreaterThan checks actual > n.
func (e *Expectation) ToBeGreaterThan(n any) error {
	return e.check(matcher{kind: Ordering, name: "ToBeGreaterThan", expected: n, op: opGreater})
}

// ToBeGreaterThanOrEqual checks actual >= n.
func (e *Expectation) ToBeGreaterThanOrEqual(n any) error {
	return e.check(matcher{kind: Ordering, name: "ToBeGreaterThanOrEqual", expected: n, op: opGreaterEqual})
}

// ToBeLessThan checks actual < n.
func (e *Expectation) ToBeLessThan(n any) error {
	return e.check(matcher{kind: Ordering, name: "ToBeLessThan", expected: n, op: opLess})
}

// ToBeLessThanOrEqual checks actual <= n.
func (e *Expectation) ToBeLessThanOrEqual(n any) error {
	return e.check(matcher{kind: Ordering, name: "ToBeLessThanOrEqual", expected: n, op: opLessEqual})
}

// ToBeDefined checks that the value is not nil, including typed nils.
func (e *Expectation) ToBeDefined() error {
	return e.check(matcher{kind: Existence, name: "ToBeDefined", presence: presenceDefined})
}

// ToBeNil checks that the value is nil, including typed nils.
func (e *Expectation) ToBeNil() error {
	return e.check(matcher{kind: Existence, name: "ToBeNil", presence: presenceNil})
}

// ToBeTruthy checks that the value is neither nil, a zero value, nor NaN.
func (e *Expectation) ToBeTruthy() error {
	return e.check(matcher{kind: Existence, name: "ToBeTruthy", presence: presenceTruthy})
}

// ToBeFalsy checks that the value is nil, a zero value, or NaN.
func (e *Expectation) ToBeFalsy() error {
	return e.check(matcher{kind: Existence, name: "ToBeFalsy", presence: presenceFalsy})
}

func (e *Expectation) check(m matcher) error {
	ok, err := evaluate(m, e.actual)

	var f *Failure
	switch {
	case err != nil:
		// A matcher that cannot be applied fails whether or not it is negated.
		f = newFailure(m, e.actual, e.negated)
		f.Reason = err.Error()
	case ok == e.negated:
		f = newFailure(m, e.actual, e.negated)
		if m.kind == DeepEqual && !e.negated {
			f.Diff = diff(m.expected, e.actual)
		}
	default:
		return nil
	}

	if e.reporter != nil {
		e.reporter.Fail(f)
	}
	return f
}

func newFailure(m matcher, actual any, negated bool) *Failure {
	expected := m.describe()
	if negated {
		expected = "not " + expected
	}
	return &Failure{
		Matcher:  m.name,
		Kind:     m.kind,
		Negated:  negated,
		Expected: expected,
		Actual:   format(actual),
	}
}
