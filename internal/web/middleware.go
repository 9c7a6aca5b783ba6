package web

import (
	"context"
	"net/http"
	"time"

	"github.com/campusplug/campusplug/internal/app"
)

// sessionCookie names the cookie carrying the browser-session id.
const sessionCookie = "sid"

// BrowserMiddleware attaches the caller's browser session to the request
// context, opening a new one when the cookie is missing or unknown.
func BrowserMiddleware(reg *app.Registry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(sessionCookie); err == nil {
				sid = c.Value
			}

			// Bootstrap outlives a cancelled first request.
			b := reg.Open(context.WithoutCancel(r.Context()), sid)
			if b.ID != sid {
				setSessionCookie(w, b.ID, secure)
			}

			next.ServeHTTP(w, r.WithContext(app.WithBrowser(r.Context(), b)))
		})
	}
}

// setSessionCookie sets the browser-session cookie. SameSite=Lax keeps it
// on the top-level redirect back from the OAuth provider.
func setSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

// clearSessionCookie clears the browser-session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// browser returns the request's browser session.
func browser(r *http.Request) *app.Browser {
	return app.BrowserFrom(r.Context())
}

// back redirects to the shell after a form post.
func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
