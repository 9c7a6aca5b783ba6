package store

import (
	"context"
	"testing"

	"github.com/campusplug/campusplug/internal/db/dbtest"
	"github.com/campusplug/campusplug/internal/model"
)

func TestCreateRequestPending(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	seedOwner(t, database, "owner", "Ana")
	seedOwner(t, database, "borrower", "Bor")

	item, _ := CreateItem(ctx, database, newListing("owner", "Drill"))

	req, err := CreateRequest(ctx, database, item.ID, "borrower")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != model.RequestStatusPending {
		t.Errorf("expected pending, got %q", req.Status)
	}

	if req.ItemID != item.ID || req.BorrowerID != "borrower" {
		t.Errorf("unexpected request %+v", req)
	}

	// The item stays listed; availability is not changed by a request.
	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusAvailable {
		t.Errorf("expected item to stay available, got %q", got.Status)
	}
}

func TestCreateRequestUnknownItem(t *testing.T) {
	database := dbtest.New(t)
	seedOwner(t, database, "borrower", "Bor")

	if _, err := CreateRequest(context.Background(), database, "nope", "borrower"); err == nil {
		t.Error("expected foreign key error for unknown item")
	}
}
