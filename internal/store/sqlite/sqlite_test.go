package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"notionat/internal/store"
)

// mustNewStore creates an in-memory store and registers cleanup
func mustNewStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, context.Background()
}

// TestStoreImplementsInterface verifies the Store type implements store.Store.
func TestStoreImplementsInterface(t *testing.T) {
	var _ store.Store = (*Store)(nil)
}

func TestGetMissingKey(t *testing.T) {
	s, ctx := mustNewStore(t)

	v, ok, err := s.Get(ctx, "PAGES_DATABASE_x")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok {
		t.Errorf("Get returned ok=true for missing key (value %q)", v)
	}
}

// TestSetOverwrites verifies last write wins for a single key.
func TestSetOverwrites(t *testing.T) {
	s, ctx := mustNewStore(t)

	if err := s.Set(ctx, "K", `{"a":1}`); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, "K", `{"a":2}`); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	v, ok, err := s.Get(ctx, "K")
	if err != nil || !ok {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if v != `{"a":2}` {
		t.Errorf("Get = %q, want %q", v, `{"a":2}`)
	}

	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Keys returned %d keys, want 1", len(keys))
	}
}

func TestKeysPrefix(t *testing.T) {
	s, ctx := mustNewStore(t)

	for _, k := range []string{"VIEW_DATABASE_b", "VIEW_DATABASE_a", "PAGES_DATABASE_a", "USERS"} {
		if err := s.Set(ctx, k, "[]"); err != nil {
			t.Fatalf("Set(%s) error: %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "VIEW_DATABASE_")
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	want := []string{"VIEW_DATABASE_a", "VIEW_DATABASE_b"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestDelete(t *testing.T) {
	s, ctx := mustNewStore(t)

	if err := s.Set(ctx, "K", "v"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Delete(ctx, "K"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "K"); ok {
		t.Error("key still present after Delete")
	}
	if err := s.Delete(ctx, "K"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

// TestPersistsAcrossReopen verifies entries survive closing the database file.
func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := s.Set(ctx, "RECENTLY_OPENED_PAGES", "[]"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_ = s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s.Close() }()

	v, ok, err := s.Get(ctx, "RECENTLY_OPENED_PAGES")
	if err != nil || !ok || v != "[]" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}

// TestSetFailureSurfaces uses sqlmock to verify write errors are returned wrapped.
func TestSetFailureSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	diskFull := errors.New("database or disk is full")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs("VIEW_DATABASE_x", "{}", sqlmock.AnyArg()).
		WillReturnError(diskFull)

	s, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("NewWithDB error: %v", err)
	}

	err = s.Set(context.Background(), "VIEW_DATABASE_x", "{}")
	if !errors.Is(err, diskFull) {
		t.Errorf("Set error = %v, want wrapped %v", err, diskFull)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

// TestGetFailureSurfaces verifies read errors other than no-rows are returned.
func TestGetFailureSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv WHERE key = ?")).
		WithArgs("USERS").
		WillReturnError(errors.New("disk I/O error"))

	s, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("NewWithDB error: %v", err)
	}

	if _, ok, err := s.Get(context.Background(), "USERS"); err == nil || ok {
		t.Errorf("Get = ok %v, err %v; want error", ok, err)
	}
}
