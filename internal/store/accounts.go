package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/model"
)

// CreateAccount creates a local sign-in account.
func CreateAccount(ctx context.Context, db *sql.DB, username, passwordHash, fullName string) (*model.Account, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, full_name) VALUES (?, ?, ?, ?)`,
		id, username, passwordHash, fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return GetAccount(ctx, db, id)
}

// GetAccount returns an account by ID, or nil if none exists.
func GetAccount(ctx context.Context, db *sql.DB, id string) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, created_at FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByUsername returns an account by username, or nil if none exists.
func GetAccountByUsername(ctx context.Context, db *sql.DB, username string) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, created_at FROM accounts WHERE username = ?`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by username: %w", err)
	}
	return a, nil
}
