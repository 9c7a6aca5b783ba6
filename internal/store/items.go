package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

const itemColumns = `i.id, i.name, i.description, i.category, i.image_url, i.status, i.owner_id, i.views, i.created_at`

// CreateItem inserts a listing and returns the stored row.
func CreateItem(ctx context.Context, db *sql.DB, in model.NewItem) (*model.Item, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, category, image_url, status, owner_id, views)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Description, in.Category, in.ImageURL, in.Status, in.OwnerID, in.Views,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID regardless of status, or errs.ErrNotFound.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.ImageURL,
		&item.Status, &item.OwnerID, &item.Views, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListAvailableItems returns every available item joined with its lender's profile.
func ListAvailableItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`, p.full_name, p.department
		 FROM items i
		 LEFT JOIN profiles p ON p.id = i.owner_id
		 WHERE i.status = ?
		 ORDER BY i.created_at DESC, i.name`, model.ItemStatusAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("listing available items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var fullName, department sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.ImageURL,
			&item.Status, &item.OwnerID, &item.Views, &item.CreatedAt, &fullName, &department); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Lender = &model.Lender{FullName: fullName.String, Department: department.String}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListOwnedItems returns an owner's items that are not delisted.
func ListOwnedItems(ctx context.Context, db *sql.DB, ownerID string) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i
		 WHERE i.owner_id = ? AND i.status != ?
		 ORDER BY i.created_at DESC, i.name`, ownerID, model.ItemStatusDelisted,
	)
	if err != nil {
		return nil, fmt.Errorf("listing owned items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.ImageURL,
			&item.Status, &item.OwnerID, &item.Views, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DelistItem soft-deletes an owner's item by setting its status to delisted.
// The row is kept. Items owned by someone else are left untouched and
// reported as errs.ErrNotOwner.
func DelistItem(ctx context.Context, db *sql.DB, ownerID, itemID string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ? WHERE id = ? AND owner_id = ?`,
		model.ItemStatusDelisted, itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delisting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.ErrNotOwner
	}
	return nil
}
