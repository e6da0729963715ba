// Package web embeds the page templates and stylesheet and renders pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/ashureev/iwe-console/internal/sidebar"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Page names understood by Renderer.Render.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PagePlain     = "page"
)

var pageNames = []string{PageLogin, PageDashboard, PagePlain}

// Page is the data every template receives.
type Page struct {
	Title   string
	Heading string
	Body    string
	Error   string
	// Username is echoed back into the login form after a failure.
	Username string
	Sidebar  sidebar.View
}

// Renderer executes one template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// Templates parses the embedded templates.
func Templates() (*Renderer, error) {
	base, err := template.ParseFS(assets, "templates/layout.html", "templates/sidebar.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(assets, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page. Output is buffered so a template error
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded static/ directory. Mount it with the
// prefix stripped.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	fileServer := http.FileServerFS(sub)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path == "/" {
			slog.Debug("web: refusing static directory listing")
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
