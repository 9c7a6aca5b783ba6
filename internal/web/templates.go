package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/model"
	webembed "github.com/campusplug/campusplug/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2 Jan 2006")
		},
		"providerName": func(p backend.Provider) string {
			switch p {
			case backend.ProviderGoogle:
				return "Google"
			case backend.ProviderMicrosoft:
				return "Microsoft"
			default:
				return string(p)
			}
		},
		"upper": strings.ToUpper,
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs, err := webembed.Templates()
	if err != nil {
		return nil, fmt.Errorf("opening templates: %w", err)
	}

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"browse.html",
		"dashboard.html",
		"profile.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// Identity is the signed-in user as shown in the navbar and profile.
type Identity struct {
	Name        string
	Department  string
	Initials    string
	AvatarURL   string
	Verified    bool
	MemberSince time.Time
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title        string
	View         model.View
	User         *Identity
	VerifyBanner bool
	Toasts       []app.Toast
}

// pageData builds the base data for b and drains its toasts. Call it after
// any fetches so their notices are included.
func pageData(b *app.Browser, title string) PageData {
	pd := PageData{
		Title: title,
		View:  b.Shell.View(),
	}
	if b.Session().SignedIn() {
		p := b.Session().Profile()
		pd.User = &Identity{
			Name:        b.Shell.DisplayName(),
			Department:  b.Shell.Department(),
			Initials:    b.Shell.Initials(),
			AvatarURL:   b.Shell.AvatarURL(),
			Verified:    p != nil && p.IsVerified,
			MemberSince: b.Shell.MemberSince(),
		}
		pd.VerifyBanner = b.Shell.ShowVerifyBanner()
	}
	pd.Toasts = b.Toasts.Drain()
	return pd
}

// ImageSource serves photos uploaded to a backend that keeps them itself.
type ImageSource interface {
	Image(ctx context.Context, id string) ([]byte, string, error)
}

// Server holds all dependencies for page handlers.
type Server struct {
	Registry  *app.Registry
	Templates *Templates
	BaseURL   string
	Images    ImageSource
	Secure    bool
}
