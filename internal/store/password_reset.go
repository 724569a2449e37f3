package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type PasswordResetStore struct {
	db database.DBTX
}

func NewPasswordResetStore(db database.DBTX) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

func scanPasswordReset(s scanner) (*model.PasswordReset, error) {
	var (
		pr                   model.PasswordReset
		expiresAt, createdAt int64
		usedAt               sql.NullInt64
	)
	if err := s.Scan(&pr.Token, &pr.UserID, &expiresAt, &usedAt, &createdAt); err != nil {
		return nil, err
	}
	pr.ExpiresAt = fromUnix(expiresAt)
	pr.UsedAt = fromNullUnix(usedAt)
	pr.CreatedAt = fromUnix(createdAt)
	return &pr, nil
}

const passwordResetCols = `token, user_id, expires_at, used_at, created_at`

// Create stores a reset token. Any earlier unused tokens for the same user
// are burned first so only the newest link works.
func (s *PasswordResetStore) Create(token string, userID int64, expiresAt, now time.Time) (*model.PasswordReset, error) {
	_, err := s.db.Exec(
		`UPDATE password_resets SET used_at = ? WHERE user_id = ? AND used_at IS NULL`,
		unix(now), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous resets: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO password_resets (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, unix(expiresAt), unix(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert password reset: %w", ErrConflict)
		}
		return nil, fmt.Errorf("insert password reset: %w", err)
	}
	return &model.PasswordReset{
		Token:     token,
		UserID:    userID,
		ExpiresAt: fromUnix(unix(expiresAt)),
		CreatedAt: fromUnix(unix(now)),
	}, nil
}

// GetUsable returns the token if it is unused and expires after now, or nil.
func (s *PasswordResetStore) GetUsable(token string, now time.Time) (*model.PasswordReset, error) {
	row := s.db.QueryRow(
		`SELECT `+passwordResetCols+` FROM password_resets WHERE token = ? AND used_at IS NULL AND expires_at > ?`,
		token, unix(now),
	)
	pr, err := scanPasswordReset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get password reset: %w", err)
	}
	return pr, nil
}

// MarkUsed sets used_at on an unused token. It reports false when the token
// was already used, so two concurrent consumers cannot both win.
func (s *PasswordResetStore) MarkUsed(token string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE password_resets SET used_at = ? WHERE token = ? AND used_at IS NULL`,
		unix(at), token,
	)
	if err != nil {
		return false, fmt.Errorf("mark password reset used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PasswordResetStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM password_resets WHERE expires_at < ?`, unix(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
