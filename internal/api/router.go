// Package api serves the caller's browser session as JSON.
package api

import (
	"net/http"

	"github.com/campusplug/campusplug/internal/app"
)

// NewRouter creates the API router with all endpoints registered. Requests
// must carry a browser session from reg in their context.
func NewRouter(reg *app.Registry) http.Handler {
	mux := http.NewServeMux()

	sessionHandler := &SessionHandler{Registry: reg}
	itemsHandler := &ItemsHandler{}

	mux.Handle("GET /api/session", RequireBrowser(http.HandlerFunc(sessionHandler.Get)))
	mux.Handle("POST /api/auth/login", RequireBrowser(http.HandlerFunc(sessionHandler.Login)))
	mux.Handle("POST /api/auth/logout", RequireSignedIn(http.HandlerFunc(sessionHandler.Logout)))

	mux.Handle("GET /api/items", RequireBrowser(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/gear", RequireSignedIn(http.HandlerFunc(itemsHandler.Gear)))

	return mux
}
