package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/imaging"
	"github.com/campusplug/campusplug/internal/model"
)

// maxPublishBytes bounds a publish request: the photo plus form fields.
const maxPublishBytes = imaging.MaxUploadBytes + 1<<20

// Borrow handles POST /items/{id}/borrow. Owners are sent to the gear hub.
func (s *Server) Borrow(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	err := b.Feed.RequestBorrow(r.Context(), r.PathValue("id"))
	if errors.Is(err, errs.ErrOwnItem) {
		b.Shell.SetView(model.ViewDashboard)
	}
	back(w, r)
}

// OpenCompose handles POST /compose.
func (s *Server) OpenCompose(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	if b.Session().SignedIn() {
		b.Shell.SetView(model.ViewDashboard)
		b.Hub.OpenCompose()
	}
	back(w, r)
}

// CancelCompose handles POST /compose/cancel.
func (s *Server) CancelCompose(w http.ResponseWriter, r *http.Request) {
	browser(r).Hub.CloseCompose()
	back(w, r)
}

// Publish handles POST /items, a multipart form with an optional photo.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	b := browser(r)
	if !b.Session().SignedIn() {
		back(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPublishBytes)
	form, err := readComposeForm(r)
	if err != nil {
		slog.Warn("invalid publish request", "error", err)
		b.Toasts.Error("Failed to list item")
		back(w, r)
		return
	}

	_ = b.Hub.Publish(r.Context(), form)
	back(w, r)
}

func readComposeForm(r *http.Request) (app.ComposeForm, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return app.ComposeForm{}, err
	}

	form := app.ComposeForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    r.FormValue("category"),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
	}

	file, _, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, nil
	case err != nil:
		return form, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return form, err
	}
	if len(data) > 0 {
		form.Photo = data
	}
	return form, nil
}

// Delist handles POST /items/{id}/delist.
func (s *Server) Delist(w http.ResponseWriter, r *http.Request) {
	_ = browser(r).Hub.Delist(r.Context(), r.PathValue("id"))
	back(w, r)
}

// ImageGet handles GET /images/{id} for locally stored photos.
func (s *Server) ImageGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := s.Images.Image(r.Context(), r.PathValue("id"))
	if errors.Is(err, errs.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
