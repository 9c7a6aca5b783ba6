// Package dbtest opens throwaway local-mode databases for tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/campusplug/campusplug/internal/db"
)

// New returns an in-memory database with the schema and migrations
// applied, closed when the test ends.
func New(tb testing.TB) *sql.DB {
	tb.Helper()

	database, err := db.Open(":memory:")
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { database.Close() })

	if err := db.Migrate(database); err != nil {
		tb.Fatalf("migrating test database: %v", err)
	}
	return database
}
