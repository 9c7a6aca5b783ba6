package web

import (
	"log/slog"
	"net/http"

	"github.com/campusplug/campusplug/internal/backend"
)

// SignIn handles GET /auth/signin/{provider}.
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	provider := backend.Provider(r.PathValue("provider"))

	u, err := b.Shell.SignIn(provider, s.BaseURL+"/auth/callback")
	if err != nil {
		back(w, r)
		return
	}
	http.Redirect(w, r, u, http.StatusSeeOther)
}

// Callback handles GET /auth/callback, the OAuth provider's redirect back.
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = e
		}
		slog.Warn("oauth provider returned an error", "error", e, "description", msg)
		b.Toasts.Error("Login failed: " + msg)
		back(w, r)
		return
	}

	if code := q.Get("code"); code != "" {
		_ = b.Shell.CompleteSignIn(r.Context(), code)
	}
	back(w, r)
}

// LocalSignIn handles POST /auth/local.
func (s *Server) LocalSignIn(w http.ResponseWriter, r *http.Request) {
	_ = browser(r).Shell.SignInWithPassword(r.Context(), r.FormValue("username"), r.FormValue("password"))
	back(w, r)
}

// Logout handles POST /logout. The browser session is discarded so the
// next request starts fresh.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	_ = b.Shell.SignOut(r.Context())
	s.Registry.Remove(b.ID)
	clearSessionCookie(w, s.Secure)
	back(w, r)
}
