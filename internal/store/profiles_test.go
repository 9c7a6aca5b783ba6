package store

import (
	"context"
	"errors"
	"testing"

	"github.com/campusplug/campusplug/internal/db/dbtest"
	"github.com/campusplug/campusplug/internal/errs"
)

func TestGetProfileNotFound(t *testing.T) {
	database := dbtest.New(t)

	_, err := GetProfile(context.Background(), database, "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureProfileCreatesOnce(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	p1, err := EnsureProfile(ctx, database, "u1", "Ana Novak")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p1.IsVerified {
		t.Error("expected new profile to be unverified")
	}
	if p1.FullName != "Ana Novak" {
		t.Errorf("expected full name 'Ana Novak', got %q", p1.FullName)
	}

	if err := VerifyProfile(ctx, database, "u1"); err != nil {
		t.Fatalf("VerifyProfile: %v", err)
	}

	// A second ensure must not reset the existing row.
	p2, err := EnsureProfile(ctx, database, "u1", "Someone Else")
	if err != nil {
		t.Fatalf("second EnsureProfile: %v", err)
	}
	if !p2.IsVerified || p2.FullName != "Ana Novak" {
		t.Errorf("expected existing verified profile, got %+v", p2)
	}

	var n int
	database.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 profile row, got %d", n)
	}
}

func TestVerifyProfileIdempotent(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	EnsureProfile(ctx, database, "u1", "")
	for i := 0; i < 2; i++ {
		if err := VerifyProfile(ctx, database, "u1"); err != nil {
			t.Fatalf("VerifyProfile run %d: %v", i+1, err)
		}
	}

	p, _ := GetProfile(ctx, database, "u1")
	if !p.IsVerified {
		t.Error("expected profile to stay verified")
	}

	if err := VerifyProfile(ctx, database, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing profile, got %v", err)
	}
}
