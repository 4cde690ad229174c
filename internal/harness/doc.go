// Package harness registers and runs named test cases grouped into suites,
// with lifecycle hooks around them.
//
// # Registration
//
// A Registry is the run context. Cases, suites and hooks are declared on it
// (the root suite) or on nested suites before anything executes:
//
//	reg := harness.NewRegistry()
//	reg.BeforeAll(func(t *harness.T) { t.Log("This is before all tests") })
//	reg.It("add 2+3 should be equal to 5", func(t *harness.T) {
//	    t.Expect(sum(2, 3)).ToBe(5)
//	})
//	reg.Describe("Combine promise tests", func(s *harness.Suite) {
//	    s.It("resolves", func(t *harness.T) {
//	        resp := harness.Await(t, getResponse())
//	        t.Expect(resp).ToEqual(Response{Value: "hello test"})
//	    })
//	})
//
// Hooks declared on the registry root are global; hooks declared on a suite
// apply to that suite and everything nested in it.
//
// # Execution order
//
// Run walks the tree depth first in declaration order:
//
//	before_all hooks of the suite            (once, on entry)
//	for each case:
//	    before_each hooks, outer suite first
//	    case body
//	    after_each hooks, inner suite first
//	after_all hooks of the suite             (once, after the last child)
//
// Cases never run concurrently. Each hook or body runs in its own frame: a
// goroutine the run loop waits on, bounded by a timeout. A failed
// expectation, a call to T.Fail, a panic, or a rejected Settler fails the
// frame; the failure is recorded against the case and the run moves on.
//
// # Failure kinds
//
//   - assertion: an expectation did not hold
//   - hook:      a lifecycle hook failed (before_all failures fail every case
//     of the suite without running them)
//   - timeout:   a frame exceeded its maximum wait
//   - error:     a panic, a rejection, or an explicit failure
//
// # Deferred results
//
// Bodies that produce their result later either block on a Deferred with
// Await, or are registered with ItAsync and return a Settler; the run loop
// waits for the settler before the next lifecycle step.
package harness
