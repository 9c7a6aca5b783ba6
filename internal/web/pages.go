package web

import (
	"net/http"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/model"
)

var providers = []backend.Provider{backend.ProviderGoogle, backend.ProviderMicrosoft}

// Index handles GET /. Signed-out browsers get the sign-in screen; others
// get the current view. The q and category parameters only filter the
// fetched feed.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	b := browser(r)

	q := r.URL.Query()
	filtering := q.Has("q") || q.Has("category")
	if q.Has("q") {
		b.Feed.SetQuery(q.Get("q"))
	}
	if q.Has("category") {
		b.Feed.SetCategory(q.Get("category"))
	}

	if !b.Session().SignedIn() {
		s.Templates.Render(w, "login.html", &struct {
			PageData
			Providers []backend.Provider
			Password  bool
		}{
			PageData:  pageData(b, "Sign in"),
			Providers: providers,
			Password:  b.Shell.PasswordSignIn(),
		})
		return
	}

	switch b.Shell.View() {
	case model.ViewDashboard:
		s.dashboardPage(w, r, b)
	case model.ViewProfile:
		s.Templates.Render(w, "profile.html", &struct{ PageData }{pageData(b, "Profile")})
	default:
		if !filtering || !b.Feed.Loaded() {
			_ = b.Feed.Refresh(r.Context())
		}
		s.browsePage(w, b)
	}
}

func (s *Server) browsePage(w http.ResponseWriter, b *app.Browser) {
	s.Templates.Render(w, "browse.html", &struct {
		PageData
		Items      []model.Item
		Loaded     bool
		Query      string
		Category   string
		Categories []string
		UserID     string
	}{
		PageData:   pageData(b, "Marketplace"),
		Items:      b.Feed.Visible(),
		Loaded:     b.Feed.Loaded(),
		Query:      b.Feed.Query(),
		Category:   b.Feed.Category(),
		Categories: append([]string{model.CategoryAll}, model.Categories...),
		UserID:     b.Session().UserID(),
	})
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request, b *app.Browser) {
	_ = b.Hub.Refresh(r.Context())
	draft, invalid := b.Hub.Draft()

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Items      []model.Item
		Loaded     bool
		Composing  bool
		Draft      app.ComposeForm
		Invalid    map[string]string
		Categories []string
	}{
		PageData:   pageData(b, "My Gear Hub"),
		Items:      b.Hub.Items(),
		Loaded:     b.Hub.Loaded(),
		Composing:  b.Hub.Composing(),
		Draft:      draft,
		Invalid:    invalid,
		Categories: model.Categories,
	})
}

// SetView handles POST /view.
func (s *Server) SetView(w http.ResponseWriter, r *http.Request) {
	if v, ok := model.ParseView(r.FormValue("view")); ok {
		browser(r).Shell.SetView(v)
	}
	back(w, r)
}

// Verify handles POST /verify.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	_ = browser(r).Shell.Verify(r.Context())
	back(w, r)
}
