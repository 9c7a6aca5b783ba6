package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// SessionHandler handles the session endpoints.
type SessionHandler struct {
	Registry *app.Registry
}

type sessionResponse struct {
	SignedIn     bool           `json:"signed_in"`
	User         *model.User    `json:"user"`
	Profile      *model.Profile `json:"profile"`
	View         model.View     `json:"view"`
	VerifyBanner bool           `json:"verify_banner"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func sessionOf(b *app.Browser) sessionResponse {
	return sessionResponse{
		SignedIn:     b.Session().SignedIn(),
		User:         b.Session().User(),
		Profile:      b.Session().Profile(),
		View:         b.Shell.View(),
		VerifyBanner: b.Shell.ShowVerifyBanner(),
	}
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, sessionOf(app.BrowserFrom(r.Context())))
}

// Login handles POST /api/auth/login for backends with local accounts.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	b := app.BrowserFrom(r.Context())

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	pa, ok := b.Client.(backend.PasswordAuth)
	if !ok {
		jsonError(w, http.StatusNotImplemented, "password sign-in is not available")
		return
	}

	if _, err := pa.SignInWithPassword(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			jsonError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("password sign-in failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, sessionOf(b))
}

// Logout handles POST /api/auth/logout. The browser session is discarded
// even when the backend call fails, so the next request starts fresh.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	b := app.BrowserFrom(r.Context())
	err := b.Shell.SignOut(r.Context())
	h.Registry.Remove(b.ID)
	if err != nil {
		jsonError(w, http.StatusBadGateway, "sign-out failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
