package expect

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(a, b int) int {
	return a + b
}

var shoppingList = []string{
	"diapers",
	"kleenex",
	"trash bags",
	"paper towels",
	"milk",
}

func TestToBe_Numbers(t *testing.T) {
	assert.NoError(t, That(sum(2, 3)).ToBe(5))
	assert.NoError(t, That(sum(7, 3)).Not().ToBe(5))

	err := That(sum(7, 3)).ToBe(5)
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "ToBe", f.Matcher)
	assert.Equal(t, Identity, f.Kind)
	assert.Equal(t, "5", f.Expected)
	assert.Equal(t, "10", f.Actual)
}

func TestToBe_NegatedFailureReportsNot(t *testing.T) {
	err := That(5).Not().ToBe(5)
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.True(t, f.Negated)
	assert.Equal(t, "not 5", f.Expected)
	assert.Contains(t, f.Error(), "Assertion failed: not.ToBe")
}

func TestToBe_ReferenceIdentity(t *testing.T) {
	a := map[string]int{"one": 1}
	b := map[string]int{"one": 1}

	assert.NoError(t, That(a).ToBe(a))
	assert.Error(t, That(a).ToBe(b), "equal maps are not the same map")

	s := []int{1, 2, 3}
	assert.NoError(t, That(s).ToBe(s))
	assert.Error(t, That(s[:2]).ToBe(s), "different length views are distinct")

	type point struct{ X, Y int }
	assert.NoError(t, That(point{1, 2}).ToBe(point{1, 2}))
	assert.Error(t, That(&point{1, 2}).ToBe(&point{1, 2}))
}

func TestToBe_SliceViews(t *testing.T) {
	s := make([]int, 2, 4)
	assert.Error(t, That(s).ToBe(s[:2:2]), "same start and length but different capacity")
	assert.Error(t, That([]int{1}).ToBe([]int{1}), "separately allocated slices are distinct")

	// Empty slices carry no storage; only nil-ness tells them apart.
	assert.NoError(t, That([]int{}).ToBe([]int{}))
	assert.NoError(t, That(make([]int, 0)).ToBe([]int{}))
	assert.Error(t, That([]int(nil)).ToBe([]int{}))
	assert.NoError(t, That([]int(nil)).ToBe([]int(nil)))
}

func TestToBe_TypeMismatch(t *testing.T) {
	assert.Error(t, That(int64(5)).ToBe(5))
	assert.Error(t, That(nil).ToBe(0))
	assert.NoError(t, That(nil).ToBe(nil))
}

func TestToBe_UncomparableInterfaceField(t *testing.T) {
	type box struct{ V any }
	// == would panic; identity reports a mismatch instead.
	assert.Error(t, That(box{V: []int{1}}).ToBe(box{V: []int{1}}))
}

func TestToEqual_ObjectAssignment(t *testing.T) {
	data := map[string]int{"one": 1}
	data["two"] = 2

	assert.NoError(t, That(data).ToEqual(map[string]int{"one": 1, "two": 2}))
}

func TestToEqual_FailureCarriesDiff(t *testing.T) {
	type response struct{ Value string }

	err := That(response{Value: "hello test"}).ToEqual(response{Value: "abcd"})
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, DeepEqual, f.Kind)
	assert.Contains(t, f.Diff, "abcd")
	assert.Contains(t, f.Diff, "hello test")
	assert.Contains(t, f.Error(), "Diff (-expected +actual)")
}

func TestToEqual_Negated(t *testing.T) {
	type response struct{ Value string }

	assert.NoError(t, That(response{Value: "hello test"}).Not().ToEqual(response{Value: "abcd"}))

	err := That(response{Value: "x"}).Not().ToEqual(response{Value: "x"})
	require.Error(t, err)
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Empty(t, f.Diff, "negated equality has nothing to diff")
}

func TestToMatch(t *testing.T) {
	assert.NoError(t, That("Sudhanshu").ToMatch(regexp.MustCompile(`anshu`)))
	assert.NoError(t, That("Sudhanshu").ToMatch("anshu"))
	assert.NoError(t, That("Sudhanshu").Not().ToMatch("xyz"))

	// String patterns are literal.
	assert.Error(t, That("Sudhanshu").ToMatch("a.shu"))
	assert.NoError(t, That("a.shu").ToMatch("a.shu"))
}

func TestToMatch_NonStringFailsEvenWhenNegated(t *testing.T) {
	for _, e := range []*Expectation{That(42), That(42).Not()} {
		err := e.ToMatch("4")
		require.Error(t, err)

		var f *Failure
		require.True(t, errors.As(err, &f))
		assert.Contains(t, f.Reason, "strings only")
	}
}

func TestToMatch_InvalidPatternType(t *testing.T) {
	err := That("abc").ToMatch(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern must be a string")
}

func TestToContain_ShoppingList(t *testing.T) {
	set := make(map[string]struct{}, len(shoppingList))
	for _, item := range shoppingList {
		set[item] = struct{}{}
	}

	assert.NoError(t, That(shoppingList).ToContain("milk"))
	assert.NoError(t, That(set).ToContain("milk"))
	assert.NoError(t, That(shoppingList).Not().ToContain("bread"))
	assert.Error(t, That(set).ToContain("bread"))
}

func TestToContain_Substring(t *testing.T) {
	assert.NoError(t, That("paper towels").ToContain("towel"))
	assert.Error(t, That("paper towels").ToContain("Towel"))

	// Composed and decomposed forms compare equal.
	assert.NoError(t, That("cafe\u0301 au lait").ToContain("caf\u00e9"))
}

func TestToContain_Array(t *testing.T) {
	arr := [3]int{1, 2, 3}
	assert.NoError(t, That(arr).ToContain(2))
	assert.Error(t, That(arr).ToContain(4))
}

func TestToContain_DeepElements(t *testing.T) {
	items := []map[string]int{{"a": 1}, {"b": 2}}
	assert.NoError(t, That(items).ToContain(map[string]int{"b": 2}))
}

func TestToContain_MismatchedKeyType(t *testing.T) {
	m := map[string]int{"1": 1}
	assert.Error(t, That(m).ToContain(1))
}

func TestToContain_Unsupported(t *testing.T) {
	err := That(42).ToContain(4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a string, sequence, or set")

	err = That(nil).Not().ToContain("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot search nil")
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"gt", That(4).ToBeGreaterThan(3)},
		{"ge equal", That(3).ToBeGreaterThanOrEqual(3)},
		{"lt", That(2.5).ToBeLessThan(3)},
		{"le", That(uint8(3)).ToBeLessThanOrEqual(3)},
		{"int64 exact", That(int64(math.MaxInt64)).ToBeGreaterThan(int64(math.MaxInt64 - 1))},
		{"negated", That(1).Not().ToBeGreaterThan(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.err)
		})
	}
}

func TestOrdering_Failures(t *testing.T) {
	assert.Error(t, That(3).ToBeGreaterThan(3))
	assert.Error(t, That(math.NaN()).ToBeLessThan(1))
	assert.Error(t, That(math.NaN()).ToBeGreaterThanOrEqual(1))

	err := That("3").ToBeGreaterThan(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")

	err = That(3).ToBeGreaterThan("1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bound must be a number")
}

func TestExistence(t *testing.T) {
	var nilPtr *int
	var nilMap map[string]int
	zero := 0

	assert.NoError(t, That(&zero).ToBeDefined())
	assert.NoError(t, That(nilPtr).ToBeNil())
	assert.NoError(t, That(nilMap).ToBeNil())
	assert.NoError(t, That(nil).ToBeNil())
	assert.Error(t, That(nilPtr).ToBeDefined())
	assert.NoError(t, That(nilPtr).Not().ToBeDefined())

	assert.NoError(t, That(1).ToBeTruthy())
	assert.NoError(t, That([]int{}).ToBeTruthy(), "empty non-nil slice is truthy")
	assert.NoError(t, That(0).ToBeFalsy())
	assert.NoError(t, That("").ToBeFalsy())
	assert.NoError(t, That(false).ToBeFalsy())
	assert.NoError(t, That(math.NaN()).ToBeFalsy())
	assert.NoError(t, That(nil).ToBeFalsy())
	assert.Error(t, That("x").ToBeFalsy())
}

type recordingReporter struct {
	failures []error
}

func (r *recordingReporter) Fail(err error) {
	r.failures = append(r.failures, err)
}

func TestWith_ReporterReceivesFailures(t *testing.T) {
	r := &recordingReporter{}

	assert.NoError(t, With(r, 1).ToBe(1))
	assert.Empty(t, r.failures)

	err := With(r, 1).Not().ToBe(1)
	require.Error(t, err)
	require.Len(t, r.failures, 1)
	assert.Same(t, err, r.failures[0])
}

func TestNot_DoesNotMutateReceiver(t *testing.T) {
	e := That(5)
	_ = e.Not()
	assert.NoError(t, e.ToBe(5))
}

func TestIsFailure(t *testing.T) {
	err := That(1).ToBe(2)
	assert.True(t, IsFailure(err))
	assert.True(t, IsFailure(errors.Join(errors.New("context"), err)))
	assert.False(t, IsFailure(errors.New("plain")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "deep_equality", DeepEqual.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
