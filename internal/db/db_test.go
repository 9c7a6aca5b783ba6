package db

import (
	"path/filepath"
	"testing"
)

func TestMigrateIdempotent(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "campusplug.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(database); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	var n int
	err = database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('profiles', 'items', 'requests')`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying tables: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 marketplace tables, got %d", n)
	}
}

func TestItemStatusConstraint(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()
	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO profiles (id) VALUES ('u1')`); err != nil {
		t.Fatalf("inserting profile: %v", err)
	}
	_, err = database.Exec(
		`INSERT INTO items (id, name, category, status, owner_id) VALUES ('i1', 'Drill', 'Lab Equipment', 'sold', 'u1')`,
	)
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown status")
	}
}

func TestOpenAppliesPragmasPerConnection(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "campusplug.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()
	database.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk int
		if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
			t.Fatalf("reading pragma: %v", err)
		}
		if fk != 1 {
			t.Fatalf("connection %d: foreign_keys = %d, want 1", i+1, fk)
		}
	}
}

func TestMigrateRecordsVersion(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var version int
	if err := database.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("reading user_version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("user_version = %d, want %d", version, len(migrations))
	}
}
