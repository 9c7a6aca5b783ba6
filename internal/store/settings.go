package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// settingTokenSecret keys the HS256 secret for local access tokens.
const settingTokenSecret = "token_secret"

// Setting returns the value stored under key, storing the value from
// generate first when the key is unset. Concurrent callers all see the
// first stored value.
func Setting(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == nil {
		return value, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}

	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating setting %s: %w", key, err)
	}

	err = db.QueryRowContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = settings.value
		 RETURNING value`,
		key, candidate,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}
	return value, nil
}

// TokenSecret returns the local access-token signing secret, creating a
// random one on first use.
func TokenSecret(ctx context.Context, db *sql.DB) (string, error) {
	return Setting(ctx, db, settingTokenSecret, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}
