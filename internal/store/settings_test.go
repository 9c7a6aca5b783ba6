package store

import (
	"context"
	"errors"
	"testing"

	"github.com/campusplug/campusplug/internal/db/dbtest"
)

func TestTokenSecretPersists(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	first, err := TokenSecret(ctx, database)
	if err != nil {
		t.Fatalf("TokenSecret: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}

	second, err := TokenSecret(ctx, database)
	if err != nil {
		t.Fatalf("TokenSecret: %v", err)
	}
	if first != second {
		t.Fatalf("expected same secret, got %q and %q", first, second)
	}
}

func TestSettingKeepsFirstValue(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	v, err := Setting(ctx, database, "k", func() (string, error) { return "one", nil })
	if err != nil || v != "one" {
		t.Fatalf("first Setting = %q, %v", v, err)
	}

	called := false
	v, err = Setting(ctx, database, "k", func() (string, error) {
		called = true
		return "two", nil
	})
	if err != nil || v != "one" {
		t.Fatalf("second Setting = %q, %v", v, err)
	}
	if called {
		t.Error("generate should not run for a stored key")
	}
}

func TestSettingGenerateError(t *testing.T) {
	database := dbtest.New(t)

	_, err := Setting(context.Background(), database, "k", func() (string, error) {
		return "", errors.New("no entropy")
	})
	if err == nil {
		t.Fatal("expected generate error")
	}
}
