package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type SessionStore struct {
	db database.DBTX
}

func NewSessionStore(db database.DBTX) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(s scanner) (*model.Session, error) {
	var (
		sess                 model.Session
		expiresAt, createdAt int64
	)
	if err := s.Scan(&sess.Token, &sess.UserID, &expiresAt, &createdAt); err != nil {
		return nil, err
	}
	sess.ExpiresAt = fromUnix(expiresAt)
	sess.CreatedAt = fromUnix(createdAt)
	return &sess, nil
}

const sessionCols = `token, user_id, expires_at, created_at`

// Create stores a session under the caller-generated token.
func (s *SessionStore) Create(token string, userID int64, expiresAt, createdAt time.Time) (*model.Session, error) {
	_, err := s.db.Exec(
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, unix(expiresAt), unix(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert session: %w", ErrConflict)
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: fromUnix(unix(expiresAt)),
		CreatedAt: fromUnix(unix(createdAt)),
	}, nil
}

// GetValid returns the session for token if it expires after now, or nil.
func (s *SessionStore) GetValid(token string, now time.Time) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, unix(now),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is before now.
func (s *SessionStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, unix(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
