package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a read-only view of one element of a Screen.
type Element struct {
	node *html.Node
}

// Tag returns the lower-case tag name, e.g. "h1".
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

// TextContent returns the text of the element and all its descendants,
// unnormalized.
func (e *Element) TextContent() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

// Role returns the explicit or implicit accessible role, or "" if the
// element has none.
func (e *Element) Role() string {
	return roleOf(e.node)
}

// Level returns the heading level, or 0 for elements that are not headings.
func (e *Element) Level() int {
	return levelOf(e.node)
}

// InDocument reports whether the element is attached to a document.
func (e *Element) InDocument() bool {
	if e == nil || e.node == nil {
		return false
	}
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

func (e *Element) String() string {
	return "<" + e.Tag() + ">"
}

var implicitRoles = map[atom.Atom]string{
	atom.H1:       "heading",
	atom.H2:       "heading",
	atom.H3:       "heading",
	atom.H4:       "heading",
	atom.H5:       "heading",
	atom.H6:       "heading",
	atom.Button:   "button",
	atom.Main:     "main",
	atom.Nav:      "navigation",
	atom.P:        "paragraph",
	atom.Ul:       "list",
	atom.Ol:       "list",
	atom.Li:       "listitem",
	atom.Article:  "article",
	atom.Textarea: "textbox",
}

func roleOf(n *html.Node) string {
	if r, ok := attr(n, "role"); ok {
		if fields := strings.Fields(r); len(fields) > 0 {
			return fields[0]
		}
	}

	switch n.DataAtom {
	case atom.A:
		if _, ok := attr(n, "href"); ok {
			return "link"
		}
		return ""
	case atom.Img:
		if alt, ok := attr(n, "alt"); ok && alt == "" {
			return "presentation"
		}
		return "img"
	case atom.Input:
		t, _ := attr(n, "type")
		switch strings.ToLower(t) {
		case "button", "submit", "reset", "image":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "", "text", "email", "tel", "url":
			return "textbox"
		}
		return ""
	}
	return implicitRoles[n.DataAtom]
}

func levelOf(n *html.Node) int {
	if roleOf(n) != "heading" {
		return 0
	}
	if v, ok := attr(n, "aria-level"); ok {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			return l
		}
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 2
}
