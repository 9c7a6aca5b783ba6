package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// GetProfile returns a profile by user ID, or errs.ErrNotFound.
func GetProfile(ctx context.Context, db *sql.DB, id string) (*model.Profile, error) {
	p := &model.Profile{}
	err := db.QueryRowContext(ctx,
		`SELECT id, full_name, department, avatar_url, is_verified, created_at
		 FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.FullName, &p.Department, &p.AvatarURL, &p.IsVerified, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// EnsureProfile creates an unverified profile for id if none exists and
// returns the stored row. Concurrent callers all observe the same row.
func EnsureProfile(ctx context.Context, db *sql.DB, id, fullName string) (*model.Profile, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO profiles (id, full_name, is_verified) VALUES (?, ?, 0)`,
		id, fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	return GetProfile(ctx, db, id)
}

// VerifyProfile sets the verified flag. It never clears it.
func VerifyProfile(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET is_verified = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("verifying profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
