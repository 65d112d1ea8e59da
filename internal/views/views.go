// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/models"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageIndex    = "index"
	PageRegister = "register"
	PageLogin    = "login"
)

// Page is the data every template receives.
type Page struct {
	CurrentUser *models.User
	// Flashes are notices queued by an earlier request.
	Flashes []auth.Flash
	// Notice is set when a form is re-rendered after a failed submission.
	Notice *auth.Flash
	// Username pre-fills the register and login forms.
	Username string
	Posts    []models.PostWithAuthor
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	"isoTime":    func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// Renderer holds the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageRegister, PageLogin} {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page with the given status. The page is rendered
// into a buffer first so a template error never leaves a half-written body.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
