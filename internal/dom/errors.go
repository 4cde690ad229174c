package dom

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a query matches no element.
	ErrNotFound = errors.New("no matching element")

	// ErrMultiple is returned when a single-element query matches more than one.
	ErrMultiple = errors.New("multiple matching elements")

	// ErrInvalidPattern is returned for text patterns that are neither a
	// string nor a *regexp.Regexp.
	ErrInvalidPattern = errors.New("text pattern must be a string or *regexp.Regexp")
)

// QueryError describes a failed query.
type QueryError struct {
	Query string // e.g. `role "heading" level 1`
	Count int
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if errors.Is(e.Err, ErrMultiple) {
		return fmt.Sprintf("%s: found %d elements: %v", e.Query, e.Count, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
