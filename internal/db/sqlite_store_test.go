package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jwyneal/typequiz/internal/services"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typequiz.db")
	sqlDB, err := sql.Open("sqlite3", "file:"+filepath.ToSlash(path)+"?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := RunMigrations(sqlDB, ""); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	store, err := NewSQLiteStore(sqlDB)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSQLiteCooldowns(t *testing.T) {
	store := newTestStore(t)

	if _, found, err := store.Get("u1"); err != nil || found {
		t.Fatalf("Get on empty table: found=%v err=%v", found, err)
	}

	stamp := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	if err := store.Put("u1", stamp); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := store.Get("u1")
	if err != nil || !found || !got.Equal(stamp) {
		t.Fatalf("Get = %v found=%v err=%v", got, found, err)
	}

	// Upsert replaces the completion stamp.
	later := stamp.Add(48 * time.Hour)
	if err := store.Put("u1", later); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}
	got, _, _ = store.Get("u1")
	if !got.Equal(later) {
		t.Fatalf("after upsert = %v, want %v", got, later)
	}

	if err := store.Put("u2", stamp); err != nil {
		t.Fatalf("Put u2: %v", err)
	}
	snap, err := store.Snapshot()
	if err != nil || len(snap) != 2 {
		t.Fatalf("snapshot = %v err=%v", snap, err)
	}

	ok, err := store.Delete("u1")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete("u1")
	if err != nil || ok {
		t.Fatalf("second Delete: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteOperators(t *testing.T) {
	store := newTestStore(t)

	if op, err := store.FindOperatorByEmail("nobody@example.com"); err != nil || op != nil {
		t.Fatalf("find missing operator: %v %v", op, err)
	}

	op := &services.Operator{
		ID:        "op1234567",
		Email:     "Ops@Example.com",
		PassHash:  []byte("$2a$10$fakehash"),
		CreatedAt: time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
	}
	if err := store.AddOperator(op); err != nil {
		t.Fatalf("AddOperator: %v", err)
	}

	// Lookup is case-insensitive on email.
	got, err := store.FindOperatorByEmail("OPS@example.COM")
	if err != nil || got == nil {
		t.Fatalf("FindOperatorByEmail: %v %v", got, err)
	}
	if got.ID != op.ID || string(got.PassHash) != string(op.PassHash) {
		t.Fatalf("operator = %+v", got)
	}
	if !got.CreatedAt.Equal(op.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, op.CreatedAt)
	}

	if err := store.AddOperator(op); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

func TestSQLiteAuditTrail(t *testing.T) {
	store := newTestStore(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.AddAudit(services.AuditEntry{Time: at, Actor: "op1", Action: "ledger_snapshot"})
	store.AddAudit(services.AuditEntry{Time: at.Add(time.Minute), Actor: "op1", Action: "clear_cooldown", Target: "u1"})

	entries := store.ListAudit()
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Action != "ledger_snapshot" || !entries[0].Time.Equal(at) {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Target != "u1" {
		t.Fatalf("second entry = %+v", entries[1])
	}
}
