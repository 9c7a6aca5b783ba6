package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/campusplug/campusplug/internal/db/dbtest"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

func newListing(owner, name string) model.NewItem {
	return model.NewItem{
		Name:        name,
		Description: "Cordless",
		Category:    "Lab Equipment",
		ImageURL:    "http://x/y.png",
		OwnerID:     owner,
		Status:      model.ItemStatusAvailable,
	}
}

func seedOwner(t *testing.T, database *sql.DB, id, name string) {
	t.Helper()
	if _, err := EnsureProfile(context.Background(), database, id, name); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
}

func TestCreateAndGetItem(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")

	item, err := CreateItem(ctx, database, newListing("owner", "Drill"))
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected generated id")
	}
	if item.Name != "Drill" || item.Category != "Lab Equipment" || item.ImageURL != "http://x/y.png" {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Status != model.ItemStatusAvailable || item.Views != 0 || item.OwnerID != "owner" {
		t.Errorf("expected available, 0 views, owner 'owner', got %+v", item)
	}
}

func TestListAvailableItemsJoinsLender(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")
	database.Exec(`UPDATE profiles SET department = 'Physics' WHERE id = 'owner'`)

	CreateItem(ctx, database, newListing("owner", "Drill"))
	borrowed, _ := CreateItem(ctx, database, newListing("owner", "Microscope"))
	database.Exec(`UPDATE items SET status = 'borrowed' WHERE id = ?`, borrowed.ID)

	items, err := ListAvailableItems(ctx, database)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 available item, got %d", len(items))
	}
	if items[0].Lender == nil || items[0].Lender.FullName != "Ana" || items[0].Lender.Department != "Physics" {
		t.Errorf("expected lender Ana/Physics, got %+v", items[0].Lender)
	}
}

func TestDelistedItemNeverReappears(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")

	item, _ := CreateItem(ctx, database, newListing("owner", "Drill"))
	if err := DelistItem(ctx, database, "owner", item.ID); err != nil {
		t.Fatalf("DelistItem: %v", err)
	}

	feed, _ := ListAvailableItems(ctx, database)
	for _, it := range feed {
		if it.ID == item.ID {
			t.Error("delisted item appeared in feed")
		}
	}
	owned, _ := ListOwnedItems(ctx, database, "owner")
	for _, it := range owned {
		if it.ID == item.ID {
			t.Error("delisted item appeared in owner's hub")
		}
	}

	// The row is retained.
	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Status != model.ItemStatusDelisted {
		t.Errorf("expected status delisted, got %q", got.Status)
	}
}

func TestDelistItemRequiresOwner(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")
	seedOwner(t, database, "other", "Bor")

	item, _ := CreateItem(ctx, database, newListing("owner", "Drill"))
	err := DelistItem(ctx, database, "other", item.ID)
	if !errors.Is(err, errs.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusAvailable {
		t.Errorf("expected item to stay available, got %q", got.Status)
	}
}

func TestListOwnedItemsKeepsBorrowed(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")
	seedOwner(t, database, "other", "Bor")

	CreateItem(ctx, database, newListing("owner", "Drill"))
	borrowed, _ := CreateItem(ctx, database, newListing("owner", "Microscope"))
	database.Exec(`UPDATE items SET status = 'borrowed' WHERE id = ?`, borrowed.ID)
	CreateItem(ctx, database, newListing("other", "Easel"))

	owned, err := ListOwnedItems(ctx, database, "owner")
	if err != nil {
		t.Fatalf("ListOwnedItems: %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("expected 2 owned items, got %d", len(owned))
	}
}
