// Package expect implements expectation handles over produced values.
//
// An Expectation wraps a single value and exposes matchers drawn from a closed
// set of kinds:
//
//   - Identity:    ToBe
//   - DeepEqual:   ToEqual
//   - Containment: ToContain
//   - Pattern:     ToMatch
//   - Ordering:    ToBeGreaterThan, ToBeGreaterThanOrEqual, ToBeLessThan, ToBeLessThanOrEqual
//   - Existence:   ToBeDefined, ToBeNil, ToBeTruthy, ToBeFalsy
//
// Not negates the matcher that follows it.
//
// Every matcher returns nil on success or a *Failure carrying the expected and
// actual values. When the Expectation was created with a Reporter, the failure
// is also handed to the reporter, which is how the harness unwinds a case
// frame on the first failed expectation:
//
//	t.Expect(sum(2, 3)).ToBe(5)
//	t.Expect(sum(7, 3)).Not().ToBe(5)
//
// Standalone use returns the failure to the caller:
//
//	if err := expect.That(list).ToContain("milk"); err != nil {
//	    log.Fatal(err)
//	}
package expect
