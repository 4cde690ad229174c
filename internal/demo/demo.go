// Package demo is the built-in catalog run by `probe test`: arithmetic,
// structural and pattern expectations, deferred results, and queries against
// the rendered Home page.
package demo

import (
	"regexp"
	"time"

	"github.com/roach88/probe/internal/app"
	"github.com/roach88/probe/internal/dom"
	"github.com/roach88/probe/internal/harness"
)

// ResponseDelay is how long getResponse takes to settle.
const ResponseDelay = 100 * time.Millisecond

// Response is the payload produced by getResponse.
type Response struct {
	Value string `json:"value"`
}

var shoppingList = []string{
	"diapers",
	"kleenex",
	"trash bags",
	"paper towels",
	"milk",
}

func sum(a, b int) int {
	return a + b
}

func getResponse() *harness.Deferred[Response] {
	return harness.After(ResponseDelay, Response{Value: "hello test"})
}

// Register declares the catalog into s.
func Register(s *harness.Suite) {
	s.BeforeAll(func(t *harness.T) { t.Log("This is before all tests") })
	s.AfterAll(func(t *harness.T) { t.Log("This is after all tests") })
	s.BeforeEach(func(t *harness.T) { t.Log("This is before each test") })
	s.AfterEach(func(t *harness.T) { t.Log("This is after each test") })

	s.Test("add 2+3 should be equal to 5", func(t *harness.T) {
		t.Expect(sum(2, 3)).ToBe(5)
		t.Expect(sum(7, 3)).Not().ToBe(5)
	})

	s.Test("object assignment", func(t *harness.T) {
		data := map[string]int{"one": 1}
		data["two"] = 2
		t.Expect(data).ToEqual(map[string]int{"one": 1, "two": 2})
	})

	s.Test("There is a 'anshu' in Sudhanshu", func(t *harness.T) {
		t.Expect("Sudhanshu").ToMatch(regexp.MustCompile(`anshu`))
	})

	s.Test("the shopping list has milk on it", func(t *harness.T) {
		set := make(map[string]struct{}, len(shoppingList))
		for _, item := range shoppingList {
			set[item] = struct{}{}
		}
		t.Expect(shoppingList).ToContain("milk")
		t.Expect(set).ToContain("milk")
	})

	s.Describe("Combine promise tests", registerPromises)
	s.Describe("Testing Home component", registerHome)
}

func registerPromises(s *harness.Suite) {
	s.Test("async function returns Hello test", func(t *harness.T) {
		response := harness.Await(t, getResponse())
		t.Expect(response).ToEqual(Response{Value: "hello test"})
	})

	s.Test("async function returns abcd", func(t *harness.T) {
		response := harness.Await(t, getResponse())
		t.Expect(response).Not().ToEqual(Response{Value: "abcd"})
	})
}

func registerHome(s *harness.Suite) {
	var screen *dom.Screen

	s.BeforeEach(func(t *harness.T) {
		var err error
		screen, err = dom.Render(app.NewHome())
		t.Check(err)
	})

	s.It("renders a heading", func(t *harness.T) {
		text, err := screen.GetByText(regexp.MustCompile(`(?i)Home`))
		t.Check(err)
		t.Expect(text.InDocument()).ToBeTruthy()
	})

	s.It("renders a heading inside h1", func(t *harness.T) {
		text, err := screen.GetByRole("heading", 1)
		t.Check(err)
		t.Expect(text.InDocument()).ToBeTruthy()
	})

	s.It("test the description", func(t *harness.T) {
		text, err := screen.GetByTestID("desc")
		t.Check(err)
		t.Expect(text.TextContent()).ToMatch(regexp.MustCompile(`description`))
	})
}
