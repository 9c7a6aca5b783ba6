package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// CreateRequest records a pending borrow request.
func CreateRequest(ctx context.Context, db *sql.DB, itemID, borrowerID string) (*model.Request, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO requests (id, item_id, borrower_id, status) VALUES (?, ?, ?, ?)`,
		id, itemID, borrowerID, model.RequestStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a request by ID, or errs.ErrNotFound.
func GetRequest(ctx context.Context, db *sql.DB, id string) (*model.Request, error) {
	r := &model.Request{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, borrower_id, status, created_at FROM requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.BorrowerID, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}
