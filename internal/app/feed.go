package app

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
	"github.com/campusplug/campusplug/internal/notify"
	"github.com/campusplug/campusplug/internal/session"
)

// Feed is the marketplace of available items.
type Feed struct {
	store    backend.Store
	session  *session.Context
	toasts   *Toasts
	notifier notify.Notifier
	guard    *guard

	mu       sync.RWMutex
	items    []model.Item
	loaded   bool
	query    string
	category string
}

// Refresh refetches the available items. On failure the previous list is kept.
func (f *Feed) Refresh(ctx context.Context) error {
	items, err := f.store.ListAvailableItems(ctx)
	if err != nil {
		slog.Error("fetching feed", "error", err)
		f.toasts.Error("Failed to fetch items")
		return err
	}

	f.mu.Lock()
	f.items, f.loaded = items, true
	f.mu.Unlock()
	return nil
}

// SetQuery sets the search text.
func (f *Feed) SetQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
}

// SetCategory sets the category filter. Unknown categories select all.
func (f *Feed) SetCategory(c string) {
	if !model.IsCategory(c) {
		c = model.CategoryAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.category = c
}

// Query returns the search text.
func (f *Feed) Query() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

// Category returns the category filter.
func (f *Feed) Category() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.category == "" {
		return model.CategoryAll
	}
	return f.category
}

// Loaded reports whether a fetch has succeeded.
func (f *Feed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Items returns every fetched item.
func (f *Feed) Items() []model.Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.items)
}

// Visible returns the fetched items that pass the current filter.
func (f *Feed) Visible() []model.Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FilterItems(f.items, f.query, f.category)
}

func (f *Feed) item(id string) (model.Item, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return model.Item{}, false
	}
	return f.items[i], true
}

// RequestBorrow sends a pending borrow request for a fetched item and
// notifies its lender. Owners get errs.ErrOwnItem and should manage the
// item instead.
func (f *Feed) RequestBorrow(ctx context.Context, itemID string) error {
	userID := f.session.UserID()
	if userID == "" {
		f.toasts.Error("Please login to borrow items")
		return errs.ErrNotSignedIn
	}

	it, ok := f.item(itemID)
	if !ok {
		f.toasts.Error("Failed to send request")
		return errs.ErrNotFound
	}
	if it.OwnerID == userID {
		return errs.ErrOwnItem
	}

	return f.guard.do("borrow:"+itemID, func() error {
		if _, err := f.store.CreateRequest(ctx, itemID, userID); err != nil {
			slog.Error("creating borrow request", "item", itemID, "error", err)
			f.toasts.Error("Failed to send request")
			return err
		}

		f.toasts.Success("Borrow request sent!")
		if err := f.notifier.SendBorrowEmail(context.WithoutCancel(ctx), it.LenderName(), it.Name); err != nil {
			slog.Warn("borrow notification failed", "item", itemID, "error", err)
		}
		return nil
	})
}
