package expect

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

// Kind identifies a matcher family.
type Kind int

const (
	Identity Kind = iota
	DeepEqual
	Containment
	Pattern
	Ordering
	Existence
)

var kindNames = [...]string{
	Identity:    "identity",
	DeepEqual:   "deep_equality",
	Containment: "containment",
	Pattern:     "pattern",
	Ordering:    "ordering",
	Existence:   "existence",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

type orderOp int

const (
	opGreater orderOp = iota
	opGreaterEqual
	opLess
	opLessEqual
)

var orderSymbols = [...]string{
	opGreater:      ">",
	opGreaterEqual: ">=",
	opLess:         "<",
	opLessEqual:    "<=",
}

type presence int

const (
	presenceDefined presence = iota
	presenceNil
	presenceTruthy
	presenceFalsy
)

var presenceNames = [...]string{
	presenceDefined: "defined",
	presenceNil:     "nil",
	presenceTruthy:  "truthy",
	presenceFalsy:   "falsy",
}

// matcher is the tagged variant evaluated by evaluate. Only the fields that
// belong to kind are set.
type matcher struct {
	kind     Kind
	name     string
	expected any
	pattern  *regexp.Regexp
	op       orderOp
	presence presence
	invalid  string
}

// describe renders the expected side of a failure.
func (m matcher) describe() string {
	switch m.kind {
	case Identity:
		return format(m.expected)
	case DeepEqual:
		return "deep equal to " + format(m.expected)
	case Containment:
		return "to contain " + format(m.expected)
	case Pattern:
		if m.pattern != nil {
			return "to match /" + m.pattern.String() + "/"
		}
		return "to match " + format(m.expected)
	case Ordering:
		return orderSymbols[m.op] + " " + format(m.expected)
	case Existence:
		return presenceNames[m.presence]
	}
	return m.name
}

func evaluate(m matcher, actual any) (bool, error) {
	if m.invalid != "" {
		return false, fmt.Errorf("%s", m.invalid)
	}

	switch m.kind {
	case Identity:
		return identical(m.expected, actual), nil
	case DeepEqual:
		return assert.ObjectsAreEqual(m.expected, actual), nil
	case Containment:
		return contains(actual, m.expected)
	case Pattern:
		return matches(actual, m.pattern)
	case Ordering:
		return compare(actual, m.expected, m.op)
	case Existence:
		return present(actual, m.presence), nil
	}
	return false, fmt.Errorf("unknown matcher kind %s", m.kind)
}

// identical reports identity in the Go sense: reference types compare by
// pointer, everything else by ==. Empty non-nil slices have no backing
// storage to tell apart, so any two of them are identical.
func identical(expected, actual any) (same bool) {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	ev, av := reflect.ValueOf(expected), reflect.ValueOf(actual)
	if ev.Type() != av.Type() {
		return false
	}

	switch ev.Kind() {
	case reflect.Slice:
		if ev.Cap() == 0 && av.Cap() == 0 {
			return ev.IsNil() == av.IsNil()
		}
		return ev.Pointer() == av.Pointer() && ev.Len() == av.Len() && ev.Cap() == av.Cap()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return ev.Pointer() == av.Pointer()
	}

	if !ev.Type().Comparable() {
		return false
	}

	// Interface fields holding uncomparable values panic on ==.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return expected == actual
}

func contains(actual, element any) (bool, error) {
	v := reflect.ValueOf(actual)
	if !v.IsValid() {
		return false, fmt.Errorf("cannot search nil for %s", format(element))
	}

	switch v.Kind() {
	case reflect.String:
		sub, ok := stringOf(element)
		if !ok {
			return false, fmt.Errorf("substring must be a string, got %T", element)
		}
		return strings.Contains(norm.NFC.String(v.String()), norm.NFC.String(sub)), nil

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if assert.ObjectsAreEqual(element, v.Index(i).Interface()) {
				return true, nil
			}
		}
		return false, nil

	case reflect.Map:
		key := reflect.ValueOf(element)
		if !key.IsValid() || !key.Type().AssignableTo(v.Type().Key()) {
			return false, nil
		}
		return v.MapIndex(key).IsValid(), nil
	}

	return false, fmt.Errorf("%T is not a string, sequence, or set", actual)
}

func matches(actual any, pattern *regexp.Regexp) (bool, error) {
	s, ok := stringOf(actual)
	if !ok {
		return false, fmt.Errorf("ToMatch applies to strings only, got %T", actual)
	}
	return pattern.MatchString(s), nil
}

func compare(actual, bound any, op orderOp) (bool, error) {
	a, ok := numberOf(actual)
	if !ok {
		return false, fmt.Errorf("actual value must be a number, got %T", actual)
	}
	b, ok := numberOf(bound)
	if !ok {
		return false, fmt.Errorf("bound must be a number, got %T", bound)
	}

	c, ok := a.cmp(b)
	if !ok {
		return false, nil // NaN is unordered
	}

	switch op {
	case opGreater:
		return c > 0, nil
	case opGreaterEqual:
		return c >= 0, nil
	case opLess:
		return c < 0, nil
	case opLessEqual:
		return c <= 0, nil
	}
	return false, fmt.Errorf("unknown ordering %d", op)
}

func present(actual any, p presence) bool {
	switch p {
	case presenceDefined:
		return !isNil(actual)
	case presenceNil:
		return isNil(actual)
	case presenceTruthy:
		return !isFalsy(actual)
	case presenceFalsy:
		return isFalsy(actual)
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func isFalsy(v any) bool {
	if isNil(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.CanFloat() && math.IsNaN(rv.Float()) {
		return true
	}
	return rv.IsZero()
}

// number keeps integers exact and falls back to float64 when the two sides
// are of different families.
type number struct {
	i      int64
	u      uint64
	f      float64
	family reflect.Kind // reflect.Int, reflect.Uint or reflect.Float64
}

func numberOf(v any) (number, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return number{i: rv.Int(), f: float64(rv.Int()), family: reflect.Int}, true
	case rv.CanUint():
		return number{u: rv.Uint(), f: float64(rv.Uint()), family: reflect.Uint}, true
	case rv.CanFloat():
		return number{f: rv.Float(), family: reflect.Float64}, true
	}
	return number{}, false
}

func (n number) cmp(o number) (int, bool) {
	if n.family == o.family {
		switch n.family {
		case reflect.Int:
			return cmpOrdered(n.i, o.i), true
		case reflect.Uint:
			return cmpOrdered(n.u, o.u), true
		}
	}
	if math.IsNaN(n.f) || math.IsNaN(o.f) {
		return 0, false
	}
	return cmpOrdered(n.f, o.f), true
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func stringOf(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func format(v any) string {
	if v == nil {
		return "nil"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%#v", v)
}

func diff(expected, actual any) string {
	return cmp.Diff(expected, actual, cmp.Exporter(func(reflect.Type) bool { return true }))
}
