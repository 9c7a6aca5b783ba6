package api

import (
	"log/slog"
	"net/http"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/model"
)

// ItemsHandler handles the item listing endpoints.
type ItemsHandler struct{}

type itemsResponse struct {
	Items []model.Item `json:"items"`
}

// List handles GET /api/items?q=&category=, the available items matching
// the filter.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	b := app.BrowserFrom(r.Context())

	items, err := b.Client.ListAvailableItems(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to fetch items")
		return
	}

	q := r.URL.Query()
	jsonResponse(w, http.StatusOK, itemsResponse{
		Items: app.FilterItems(items, q.Get("q"), q.Get("category")),
	})
}

// Gear handles GET /api/gear, the caller's listings that are not delisted.
func (h *ItemsHandler) Gear(w http.ResponseWriter, r *http.Request) {
	b := app.BrowserFrom(r.Context())

	items, err := b.Client.ListOwnedItems(r.Context(), b.Session().UserID())
	if err != nil {
		slog.Error("failed to list owned items", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to fetch your gear")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, itemsResponse{Items: items})
}
