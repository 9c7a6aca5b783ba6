package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/imaging"
	"github.com/campusplug/campusplug/internal/model"
	"github.com/campusplug/campusplug/internal/session"
	"github.com/campusplug/campusplug/internal/validation"
)

// ComposeForm is the new-listing form. A listing needs an image URL or an
// uploaded photo.
type ComposeForm struct {
	Name        string `form:"name" validate:"required,max=120"`
	Description string `form:"description" validate:"required,max=2000"`
	Category    string `form:"category" validate:"required,category"`
	ImageURL    string `form:"image_url" validate:"required_without=Photo,max=2048"`
	Photo       []byte `form:"photo"`
}

// Hub is the signed-in user's own listings and the compose surface.
type Hub struct {
	client   backend.Client
	session  *session.Context
	toasts   *Toasts
	validate *validation.Validator
	guard    *guard

	mu        sync.RWMutex
	items     []model.Item
	loaded    bool
	composing bool
	draft     ComposeForm
	invalid   map[string]string
}

func newDraft() ComposeForm {
	return ComposeForm{Category: model.DefaultCategory}
}

// Refresh refetches the user's listings that are not delisted.
func (h *Hub) Refresh(ctx context.Context) error {
	userID := h.session.UserID()
	if userID == "" {
		return errs.ErrNotSignedIn
	}

	items, err := h.client.ListOwnedItems(ctx, userID)
	if err != nil {
		slog.Error("fetching owned items", "user", userID, "error", err)
		h.toasts.Error("Failed to fetch your gear")
		return err
	}

	h.mu.Lock()
	h.items, h.loaded = items, true
	h.mu.Unlock()
	return nil
}

// Items returns the fetched listings.
func (h *Hub) Items() []model.Item {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.items)
}

// Loaded reports whether a fetch has succeeded.
func (h *Hub) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// OpenCompose shows the compose surface.
func (h *Hub) OpenCompose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.composing = true
	if h.draft.Category == "" {
		h.draft = newDraft()
	}
}

// CloseCompose hides the compose surface. The draft is kept.
func (h *Hub) CloseCompose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.composing = false
	h.invalid = nil
}

// Composing reports whether the compose surface is shown.
func (h *Hub) Composing() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.composing
}

// Draft returns the form as last submitted, with per-field problems.
func (h *Hub) Draft() (ComposeForm, map[string]string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d := h.draft
	d.Photo = nil
	if d.Category == "" {
		d.Category = model.DefaultCategory
	}
	return d, h.invalid
}

// Publish validates the form and inserts an available listing owned by the
// signed-in user. Invalid forms are rejected before any backend call. On
// success the compose surface closes, the draft resets and the listings
// are refetched.
func (h *Hub) Publish(ctx context.Context, form ComposeForm) error {
	userID := h.session.UserID()
	if userID == "" {
		return errs.ErrNotSignedIn
	}
	if form.Category == "" {
		form.Category = model.DefaultCategory
	}

	h.mu.Lock()
	h.draft, h.invalid = form, nil
	h.mu.Unlock()

	if err := h.validate.Validate(form); err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			h.mu.Lock()
			h.invalid = fe.Fields
			h.mu.Unlock()
		}
		h.toasts.Error("Please fill in all fields")
		return err
	}

	return h.guard.do("publish", func() error {
		item, err := h.newItem(ctx, userID, form)
		if err == nil {
			_, err = h.client.CreateItem(ctx, item)
		}
		if err != nil {
			slog.Error("publishing item", "user", userID, "error", err)
			h.toasts.Error("Failed to list item")
			return err
		}

		slog.Info("item listed", "user", userID, "name", item.Name)
		h.toasts.Success("Item listed successfully!")
		h.mu.Lock()
		h.composing, h.draft = false, newDraft()
		h.mu.Unlock()
		_ = h.Refresh(ctx)
		return nil
	})
}

// newItem builds the row to insert, uploading the photo when the form has
// one and no image URL.
func (h *Hub) newItem(ctx context.Context, userID string, form ComposeForm) (model.NewItem, error) {
	imageURL := form.ImageURL
	if imageURL == "" {
		u, err := h.uploadPhoto(ctx, userID, form.Photo)
		if err != nil {
			return model.NewItem{}, err
		}
		imageURL = u
	}

	return model.NewItem{
		Name:        form.Name,
		Description: form.Description,
		Category:    form.Category,
		ImageURL:    imageURL,
		OwnerID:     userID,
		Status:      model.ItemStatusAvailable,
		Views:       0,
	}, nil
}

func (h *Hub) uploadPhoto(ctx context.Context, userID string, data []byte) (string, error) {
	images, ok := h.client.(backend.ImageStore)
	if !ok {
		return "", errors.New("backend does not host images")
	}

	photo, err := imaging.Process(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("processing photo: %w", err)
	}
	return images.UploadImage(ctx, userID, photo.Data, photo.MIME)
}

// Delist soft-deletes one of the fetched listings and refetches.
func (h *Hub) Delist(ctx context.Context, itemID string) error {
	userID := h.session.UserID()
	if userID == "" {
		return errs.ErrNotSignedIn
	}

	h.mu.RLock()
	owned := slices.ContainsFunc(h.items, func(it model.Item) bool { return it.ID == itemID })
	h.mu.RUnlock()
	if !owned {
		h.toasts.Error("Failed to de-list item")
		return errs.ErrNotOwner
	}

	return h.guard.do("delist:"+itemID, func() error {
		if err := h.client.DelistItem(ctx, userID, itemID); err != nil {
			slog.Error("delisting item", "item", itemID, "error", err)
			h.toasts.Error("Failed to de-list item")
			return err
		}

		slog.Info("item delisted", "user", userID, "item", itemID)
		h.toasts.Success("Item de-listed")
		_ = h.Refresh(ctx)
		return nil
	})
}
