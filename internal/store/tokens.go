package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeSession records a signed-out access token by its JTI. The entry is
// only needed until the token would have expired anyway.
func RevokeSession(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// SessionRevoked reports whether the token with the given JTI was signed out.
func SessionRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return revoked, nil
}

// PurgeRevoked drops revocations whose tokens expired before now and
// returns how many were removed.
func PurgeRevoked(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging revoked sessions: %w", err)
	}
	return res.RowsAffected()
}
