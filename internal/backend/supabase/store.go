package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

const (
	tableProfiles = "profiles"
	tableItems    = "items"
	tableRequests = "requests"

	feedColumns = "*,profiles(full_name,department)"
)

// GetProfile returns the user's profile or errs.ErrNotFound.
func (c *Conn) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := c.From(tableProfiles).Select("*").Eq("id", userID).Single().Execute(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &p, nil
}

// EnsureProfile inserts an unverified profile unless one exists, then
// returns the stored row.
func (c *Conn) EnsureProfile(ctx context.Context, user model.User) (*model.Profile, error) {
	row := map[string]any{"id": user.ID, "is_verified": false}
	if user.FullName != "" {
		row["full_name"] = user.FullName
	}
	if user.AvatarURL != "" {
		row["avatar_url"] = user.AvatarURL
	}

	var created []model.Profile
	if err := c.From(tableProfiles).Upsert(ctx, row, "id", &created); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if len(created) == 1 {
		return &created[0], nil
	}
	return c.GetProfile(ctx, user.ID)
}

// VerifyProfile sets is_verified on the user's profile.
func (c *Conn) VerifyProfile(ctx context.Context, userID string) error {
	var rows []json.RawMessage
	err := c.From(tableProfiles).Eq("id", userID).Update(ctx, map[string]bool{"is_verified": true}, &rows)
	if err != nil {
		return fmt.Errorf("verifying profile: %w", err)
	}
	if len(rows) == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListAvailableItems lists available items with their lender, newest first.
func (c *Conn) ListAvailableItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := c.From(tableItems).
		Select(feedColumns).
		Eq("status", model.ItemStatusAvailable).
		Order("created_at", false).
		Execute(ctx, &items)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListOwnedItems lists the owner's items that are not delisted.
func (c *Conn) ListOwnedItems(ctx context.Context, ownerID string) ([]model.Item, error) {
	items := []model.Item{}
	err := c.From(tableItems).
		Select("*").
		Eq("owner_id", ownerID).
		Neq("status", model.ItemStatusDelisted).
		Order("created_at", false).
		Execute(ctx, &items)
	if err != nil {
		return nil, fmt.Errorf("listing owned items: %w", err)
	}
	return items, nil
}

// CreateItem inserts a listing.
func (c *Conn) CreateItem(ctx context.Context, item model.NewItem) (*model.Item, error) {
	var rows []model.Item
	if err := c.From(tableItems).Insert(ctx, item, &rows); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating item: no row returned")
	}
	return &rows[0], nil
}

// DelistItem marks the owner's item delisted. Items of other owners are
// left untouched and reported as errs.ErrNotOwner.
func (c *Conn) DelistItem(ctx context.Context, ownerID, itemID string) error {
	var rows []json.RawMessage
	err := c.From(tableItems).
		Eq("id", itemID).
		Eq("owner_id", ownerID).
		Update(ctx, map[string]string{"status": model.ItemStatusDelisted}, &rows)
	if err != nil {
		return fmt.Errorf("delisting item: %w", err)
	}
	if len(rows) == 0 {
		return errs.ErrNotOwner
	}
	return nil
}

// CreateRequest inserts a pending borrow request.
func (c *Conn) CreateRequest(ctx context.Context, itemID, borrowerID string) (*model.Request, error) {
	row := map[string]string{
		"item_id":     itemID,
		"borrower_id": borrowerID,
		"status":      model.RequestStatusPending,
	}
	var rows []model.Request
	if err := c.From(tableRequests).Insert(ctx, row, &rows); err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating request: no row returned")
	}
	return &rows[0], nil
}

// UploadImage stores a photo in the image bucket under the owner's folder
// and returns its public URL.
func (c *Conn) UploadImage(ctx context.Context, ownerID string, data []byte, mime string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	name := path.Join(ownerID, uuid.NewString()+extension(mime))
	err = c.c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/storage/v1/object/" + c.c.bucket + "/" + name,
		headers: map[string]string{"Content-Type": mime, "x-upsert": "false"},
		token:   token,
		raw:     data,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	return c.c.PublicURL(name), nil
}

// PublicURL returns the public URL of an object in the image bucket.
func (c *Client) PublicURL(name string) string {
	return c.baseURL + "/storage/v1/object/public/" + c.bucket + "/" + name
}

func extension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

var (
	_ backend.Client     = (*Conn)(nil)
	_ backend.ImageStore = (*Conn)(nil)
	_ backend.Connector  = (*Client)(nil)
)
