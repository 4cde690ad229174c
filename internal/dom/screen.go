package dom

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// Component is anything that renders itself as HTML.
type Component interface {
	Render(w io.Writer) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(w io.Writer) error

// Render calls f(w).
func (f ComponentFunc) Render(w io.Writer) error {
	return f(w)
}

// Screen is the parsed output of one render. It is never modified after
// Render returns, so queries are safe from multiple goroutines.
type Screen struct {
	doc  *html.Node
	body *html.Node
}

// Render renders c and parses the result into a Screen.
func Render(c Component) (*Screen, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return nil, fmt.Errorf("render component: %w", err)
	}
	return Parse(&buf)
}

// Parse builds a Screen from an HTML document or fragment.
func Parse(r io.Reader) (*Screen, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	s := &Screen{doc: doc, body: findBody(doc)}
	if s.body == nil {
		s.body = doc
	}
	return s, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// HTML returns the rendered markup of the body contents.
func (s *Screen) HTML() string {
	var buf bytes.Buffer
	for c := s.body.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// GetByText returns the single element whose own text matches pattern.
//
// A string pattern must equal the element text after whitespace is trimmed
// and collapsed; a *regexp.Regexp must match somewhere in it.
func (s *Screen) GetByText(pattern any) (*Element, error) {
	match, query, err := textMatcher(pattern)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return single(query, s.find(func(n *html.Node) bool {
		return match(ownText(n))
	}))
}

// QueryByText is GetByText returning nil instead of ErrNotFound.
func (s *Screen) QueryByText(pattern any) (*Element, error) {
	return orNil(s.GetByText(pattern))
}

// AllByText returns every element whose own text matches pattern.
func (s *Screen) AllByText(pattern any) ([]*Element, error) {
	match, query, err := textMatcher(pattern)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return s.find(func(n *html.Node) bool {
		return match(ownText(n))
	}), nil
}

// GetByRole returns the single element with the given accessible role. A
// positive level further restricts headings to that level.
func (s *Screen) GetByRole(role string, level int) (*Element, error) {
	return single(roleQuery(role, level), s.AllByRole(role, level))
}

// QueryByRole is GetByRole returning nil instead of ErrNotFound.
func (s *Screen) QueryByRole(role string, level int) (*Element, error) {
	return orNil(s.GetByRole(role, level))
}

// AllByRole returns every element with the given role and level.
func (s *Screen) AllByRole(role string, level int) []*Element {
	return s.find(func(n *html.Node) bool {
		if roleOf(n) != role {
			return false
		}
		return level <= 0 || levelOf(n) == level
	})
}

// GetByTestID returns the single element whose data-testid equals id.
func (s *Screen) GetByTestID(id string) (*Element, error) {
	return single(fmt.Sprintf("test id %q", id), s.find(func(n *html.Node) bool {
		v, ok := attr(n, "data-testid")
		return ok && v == id
	}))
}

// QueryByTestID is GetByTestID returning nil instead of ErrNotFound.
func (s *Screen) QueryByTestID(id string) (*Element, error) {
	return orNil(s.GetByTestID(id))
}

// find returns the body's descendant elements accepted by keep, in document
// order.
func (s *Screen) find(keep func(*html.Node) bool) []*Element {
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
				continue
			}
			if keep(c) {
				out = append(out, &Element{node: c})
			}
			walk(c)
		}
	}
	walk(s.body)
	return out
}

func single(query string, found []*Element) (*Element, error) {
	switch len(found) {
	case 0:
		return nil, &QueryError{Query: query, Err: ErrNotFound}
	case 1:
		return found[0], nil
	default:
		return nil, &QueryError{Query: query, Count: len(found), Err: ErrMultiple}
	}
}

func orNil(el *Element, err error) (*Element, error) {
	if IsNotFound(err) {
		return nil, nil
	}
	return el, err
}

func textMatcher(pattern any) (func(string) bool, string, error) {
	switch p := pattern.(type) {
	case string:
		want := normalize(p)
		return func(s string) bool { return s == want }, fmt.Sprintf("text %q", want), nil
	case *regexp.Regexp:
		return p.MatchString, fmt.Sprintf("text /%s/", p), nil
	default:
		return nil, fmt.Sprintf("text %v", pattern), ErrInvalidPattern
	}
}

func roleQuery(role string, level int) string {
	if level > 0 {
		return fmt.Sprintf("role %q level %d", role, level)
	}
	return fmt.Sprintf("role %q", role)
}

// ownText is the normalized concatenation of n's direct text children.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return normalize(b.String())
}

// normalize collapses whitespace and composes the text to NFC.
func normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
