package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/errs"
)

// SaveImage stores an uploaded listing photo and returns its ID.
func SaveImage(ctx context.Context, db *sql.DB, ownerID string, data []byte, mime string) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO images (id, owner_id, data, mime) VALUES (?, ?, ?, ?)`,
		id, ownerID, data, mime,
	)
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return id, nil
}

// GetImage returns an image's data and MIME type, or errs.ErrNotFound.
func GetImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", errs.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}
