package store

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSessionCreateAndGetValid(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	uid := mustCreateUser(t, db, "alice@example.com")

	created, err := ss.Create("abc", uid, t0.Add(7*24*time.Hour), t0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if created.UserID != uid {
		t.Errorf("user_id = %d, want %d", created.UserID, uid)
	}

	sess, err := ss.GetValid("abc", t0)
	if err != nil {
		t.Fatalf("get valid: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if !sess.ExpiresAt.Equal(t0.Add(7 * 24 * time.Hour)) {
		t.Errorf("expires_at = %v", sess.ExpiresAt)
	}
}

func TestSessionGetValidExpired(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	uid := mustCreateUser(t, db, "alice@example.com")

	if _, err := ss.Create("old", uid, t0.Add(-time.Second), t0.Add(-time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	sess, err := ss.GetValid("old", t0)
	if err != nil {
		t.Fatalf("get valid: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	// A session expiring exactly now is no longer valid.
	if _, err := ss.Create("edge", uid, t0, t0.Add(-time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess, _ := ss.GetValid("edge", t0); sess != nil {
		t.Error("expected nil for session expiring at now")
	}
}

func TestSessionDuplicateToken(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	uid := mustCreateUser(t, db, "alice@example.com")

	ss.Create("dup", uid, t0.Add(time.Hour), t0)
	_, err := ss.Create("dup", uid, t0.Add(time.Hour), t0)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestSessionCreateUnknownUser(t *testing.T) {
	ss := NewSessionStore(openTestDB(t))

	if _, err := ss.Create("tok", 404, t0.Add(time.Hour), t0); err == nil {
		t.Fatal("expected foreign key error for unknown user")
	}
}

func TestSessionDelete(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	uid := mustCreateUser(t, db, "alice@example.com")

	ss.Create("abc", uid, t0.Add(time.Hour), t0)
	if err := ss.Delete("abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if sess, _ := ss.GetValid("abc", t0); sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	alice := mustCreateUser(t, db, "alice@example.com")
	bob := mustCreateUser(t, db, "bob@example.com")

	ss.Create("a1", alice, t0.Add(time.Hour), t0)
	ss.Create("a2", alice, t0.Add(time.Hour), t0)
	ss.Create("b1", bob, t0.Add(time.Hour), t0)

	if err := ss.DeleteByUserID(alice); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if sess, _ := ss.GetValid("a2", t0); sess != nil {
		t.Error("alice session survived")
	}
	if sess, _ := ss.GetValid("b1", t0); sess == nil {
		t.Error("bob session was removed")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionStore(db)
	uid := mustCreateUser(t, db, "alice@example.com")

	ss.Create("expired1", uid, t0.Add(-2*time.Hour), t0.Add(-3*time.Hour))
	ss.Create("expired2", uid, t0.Add(-time.Minute), t0.Add(-3*time.Hour))
	ss.Create("live", uid, t0.Add(time.Hour), t0)

	n, err := ss.DeleteExpired(t0)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if sess, _ := ss.GetValid("live", t0); sess == nil {
		t.Error("live session was removed")
	}
}

func TestSessionCreateDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewSessionStore(db).Create("tok", 1, t0.Add(time.Hour), t0)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("generic failure must not be reported as a conflict")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSessionGetValidDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT token, user_id, expires_at, created_at FROM sessions")).
		WithArgs("tok", t0.Unix()).
		WillReturnError(errors.New("connection reset"))

	sess, err := NewSessionStore(db).GetValid("tok", t0)
	if err == nil {
		t.Fatal("expected error")
	}
	if sess != nil {
		t.Error("expected nil session on error")
	}
}
