package harness

import "time"

// Func is a synchronous case or hook body.
type Func func(t *T)

// AsyncFunc is a body that hands back a completion signal. A nil Settler
// means the body completed synchronously.
type AsyncFunc func(t *T) Settler

// RegisterFunc declares cases, suites and hooks into a suite.
type RegisterFunc func(s *Suite)

// Registry is the run context: it owns the root suite and every
// registration made through it. Hooks declared on the root are global.
// Nothing is shared between registries, so repeated or parallel runs stay
// isolated.
type Registry struct {
	*Suite
}

// NewRegistry creates an empty run context.
func NewRegistry() *Registry {
	return &Registry{Suite: &Suite{}}
}

// Load applies each RegisterFunc to the root suite in order.
func (r *Registry) Load(fns ...RegisterFunc) *Registry {
	for _, fn := range fns {
		fn(r.Suite)
	}
	return r
}

// node is a suite child: *Case or *Suite.
type node interface {
	nodeName() string
}

// Suite is an ordered group of cases and nested suites sharing hooks.
type Suite struct {
	name     string
	parent   *Suite
	children []node
	hooks    [len(timingNames)][]AsyncFunc
}

// Case is a registered test case.
type Case struct {
	name    string
	suite   *Suite
	body    AsyncFunc
	timeout time.Duration
}

// CaseOption configures a registered case.
type CaseOption func(*Case)

// Timeout overrides the run's default maximum wait for one case.
func Timeout(d time.Duration) CaseOption {
	return func(c *Case) {
		c.timeout = d
	}
}

func (s *Suite) nodeName() string { return s.name }
func (c *Case) nodeName() string  { return c.name }

// Name returns the suite name; the root suite has an empty name.
func (s *Suite) Name() string { return s.name }

// Name returns the case name.
func (c *Case) Name() string { return c.name }

// Path returns the names of s and its ancestors, outermost first, excluding
// the root.
func (s *Suite) Path() []string {
	var path []string
	for cur := s; cur != nil && cur.parent != nil; cur = cur.parent {
		path = append([]string{cur.name}, path...)
	}
	return path
}

// FullName returns the case name prefixed by its suite path.
func (c *Case) FullName() string {
	return joinPath(c.suite.Path(), c.name)
}

// Describe registers a nested suite. body runs immediately and only
// registers; it must not execute assertions.
func (s *Suite) Describe(name string, body RegisterFunc) *Suite {
	child := &Suite{name: name, parent: s}
	s.children = append(s.children, child)
	body(child)
	return child
}

// It registers a synchronous case. Duplicate names are allowed and are
// reported independently.
func (s *Suite) It(name string, body Func, opts ...CaseOption) *Case {
	return s.ItAsync(name, syncBody(body), opts...)
}

// Test is an alias of It.
func (s *Suite) Test(name string, body Func, opts ...CaseOption) *Case {
	return s.It(name, body, opts...)
}

// ItAsync registers a case whose body returns a completion signal. The case
// completes when the signal settles.
func (s *Suite) ItAsync(name string, body AsyncFunc, opts ...CaseOption) *Case {
	c := &Case{name: name, suite: s, body: body}
	for _, opt := range opts {
		opt(c)
	}
	s.children = append(s.children, c)
	return c
}

// Hook registers a lifecycle callback with the given timing on s.
func (s *Suite) Hook(timing Timing, fn AsyncFunc) {
	s.hooks[timing] = append(s.hooks[timing], fn)
}

// BeforeAll runs fn once before the first case of s.
func (s *Suite) BeforeAll(fn Func) { s.Hook(BeforeAll, syncBody(fn)) }

// AfterAll runs fn once after the last case of s.
func (s *Suite) AfterAll(fn Func) { s.Hook(AfterAll, syncBody(fn)) }

// BeforeEach runs fn before every case under s, nested suites included.
func (s *Suite) BeforeEach(fn Func) { s.Hook(BeforeEach, syncBody(fn)) }

// AfterEach runs fn after every case under s, nested suites included.
func (s *Suite) AfterEach(fn Func) { s.Hook(AfterEach, syncBody(fn)) }

// Cases returns every case under s in declaration order, depth first.
func (s *Suite) Cases() []*Case {
	var out []*Case
	s.walk(func(c *Case) { out = append(out, c) })
	return out
}

// Suites returns the direct child suites of s.
func (s *Suite) Suites() []*Suite {
	var out []*Suite
	for _, child := range s.children {
		if sub, ok := child.(*Suite); ok {
			out = append(out, sub)
		}
	}
	return out
}

// OutlineNode is one entry of the registered tree, as printed by listings.
type OutlineNode struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`            // "suite" or "case"
	Hooks    []string      `json:"hooks,omitempty"` // timings with at least one hook
	Children []OutlineNode `json:"children,omitempty"`
}

// Outline returns the tree under s in declaration order without running
// anything.
func (s *Suite) Outline() OutlineNode {
	n := OutlineNode{Name: s.name, Kind: "suite"}
	for timing, hooks := range s.hooks {
		if len(hooks) > 0 {
			n.Hooks = append(n.Hooks, Timing(timing).String())
		}
	}
	for _, child := range s.children {
		switch c := child.(type) {
		case *Case:
			n.Children = append(n.Children, OutlineNode{Name: c.name, Kind: "case"})
		case *Suite:
			n.Children = append(n.Children, c.Outline())
		}
	}
	return n
}

func (s *Suite) walk(fn func(*Case)) {
	for _, child := range s.children {
		switch n := child.(type) {
		case *Case:
			fn(n)
		case *Suite:
			n.walk(fn)
		}
	}
}

func syncBody(fn Func) AsyncFunc {
	return func(t *T) Settler {
		fn(t)
		return nil
	}
}
