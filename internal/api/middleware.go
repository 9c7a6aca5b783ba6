package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/campusplug/campusplug/internal/app"
)

// RequireBrowser rejects requests without a browser session.
func RequireBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.BrowserFrom(r.Context()) == nil {
			jsonError(w, http.StatusInternalServerError, "no browser session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests from signed-out browsers.
func RequireSignedIn(next http.Handler) http.Handler {
	return RequireBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.BrowserFrom(r.Context()).Session().SignedIn() {
			jsonError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
