package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageAdmin   = "admin.html"
	pageSignup  = "signup.html"
	pageProfile = "profile.html"
	pageMessage = "message.html"
)

// pageData is the model every page template receives.
type pageData struct {
	Org       string
	Title     string
	CSRFToken string
	User      *websession.Session

	Notice string
	Error  string
	Errors map[string]string

	Email    string
	Fields   []fieldView
	Link     string
	LinkText string
}

type fieldView struct {
	Name     string
	Label    string
	Value    string
	Required bool
	URL      bool
}

func fieldViews(set domain.FieldSet, values map[string]string) []fieldView {
	views := make([]fieldView, len(set.Fields))
	for i, f := range set.Fields {
		views[i] = fieldView{
			Name:     f.Name,
			Label:    f.Label,
			Value:    values[f.Name],
			Required: set.Required(f.Name),
			URL:      f.URL,
		}
	}
	return views
}

// pages renders the HTML views. Each page is parsed together with the
// shared layout.
type pages struct {
	org string
	set map[string]*template.Template
}

func newPages(org string) (*pages, error) {
	p := &pages{org: org, set: make(map[string]*template.Template)}
	for _, name := range []string{pageAdmin, pageSignup, pageProfile, pageMessage} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/fields.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.set[name] = t
	}
	return p, nil
}

func (p *pages) render(w http.ResponseWriter, r *http.Request, code int, name string, data pageData) {
	ctx := r.Context()

	data.Org = p.org
	data.CSRFToken = httpx.CSRFToken(ctx)
	if s, ok := httpx.SessionFromContext(ctx); ok {
		data.User = &s
	}

	var buf bytes.Buffer
	if err := p.set[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		slogx.FromContext(ctx).Error("failed to render page", "page", name, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// message renders a standalone notice or error page.
func (p *pages) message(w http.ResponseWriter, r *http.Request, code int, title, text string) {
	data := pageData{Title: title}
	if code >= 400 {
		data.Error = text
	} else {
		data.Notice = text
	}
	p.render(w, r, code, pageMessage, data)
}
