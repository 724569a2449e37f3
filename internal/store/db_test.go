package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixed reference instant, truncated to the second like the stored columns.
var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustCreateUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "Test", "hash", t0)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}
