// Package app holds the page components exercised by the demo catalog.
package app

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templates embed.FS

var pages = template.Must(template.ParseFS(templates, "templates/*.html"))

// Link is a navigation entry.
type Link struct {
	Label string
	Href  string
}

// Home is the landing page: a level-one heading, a description paragraph
// tagged "desc", and optional navigation links.
type Home struct {
	Title       string
	Description string
	Links       []Link
}

// NewHome returns the landing page with its default content.
func NewHome() Home {
	return Home{
		Title:       "Home",
		Description: "Welcome to the probe demo, a short description of what it checks.",
		Links: []Link{
			{Label: "Docs", Href: "/docs"},
			{Label: "About", Href: "/about"},
		},
	}
}

// Render writes the page markup to w.
func (h Home) Render(w io.Writer) error {
	return pages.ExecuteTemplate(w, "home.html", h)
}
