package store_test

import (
	"context"
	"errors"
	"testing"

	"notionat/internal/store"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "USERS", "[]"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, ok, err := m.Get(ctx, "USERS")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
}

func TestMemoryFailWrites(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	_ = m.Set(ctx, "K", "old")

	m.FailWrites(true)
	if err := m.Set(ctx, "K", "new"); !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("Set error = %v, want ErrWriteFailed", err)
	}
	if v, _, _ := m.Get(ctx, "K"); v != "old" {
		t.Errorf("value changed to %q despite failed write", v)
	}
}

func TestMemoryClosed(t *testing.T) {
	m := store.NewMemory()
	_ = m.Close()
	if _, _, err := m.Get(context.Background(), "K"); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Get after Close error = %v, want ErrClosed", err)
	}
}

func TestMemoryKeys(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	_ = m.Set(ctx, "VIEW_DATABASE_b", "{}")
	_ = m.Set(ctx, "VIEW_DATABASE_a", "{}")
	_ = m.Set(ctx, "USERS", "[]")

	keys, err := m.Keys(ctx, "VIEW_")
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "VIEW_DATABASE_a" {
		t.Errorf("Keys = %v", keys)
	}
}
