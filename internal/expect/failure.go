package expect

import (
	"errors"
	"fmt"
	"strings"
)

// Failure is returned when a matcher does not hold.
type Failure struct {
	Matcher  string // Matcher name, e.g. "ToEqual"
	Kind     Kind
	Negated  bool
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual value
	Diff     string // Structural diff, deep equality only
	Reason   string // Set when the matcher could not be applied to the value
}

// Error implements the error interface.
func (f *Failure) Error() string {
	var buf strings.Builder

	name := f.Matcher
	if f.Negated {
		name = "not." + name
	}
	fmt.Fprintf(&buf, "Assertion failed: %s\n", name)

	if f.Reason != "" {
		fmt.Fprintf(&buf, "  Reason: %s\n", f.Reason)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", f.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", f.Actual)

	if f.Diff != "" {
		fmt.Fprintf(&buf, "\nDiff (-expected +actual):\n%s", f.Diff)
	}

	return buf.String()
}

// IsFailure reports whether err is, or wraps, a matcher failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
