package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type UserStore struct {
	db database.DBTX
}

func NewUserStore(db database.DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		name      sql.NullString
		hash      sql.NullString
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Email, &name, &hash, &createdAt); err != nil {
		return nil, err
	}
	u.Name = fromNullString(name)
	u.PasswordHash = hash.String
	u.CreatedAt = fromUnix(createdAt)
	return &u, nil
}

const userCols = `id, email, name, password_hash, created_at`

// Create inserts a user. It returns ErrConflict when the email is taken;
// the column is unique and case-insensitive.
func (s *UserStore) Create(email, name, passwordHash string, createdAt time.Time) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email,
		sql.NullString{String: name, Valid: name != ""},
		sql.NullString{String: passwordHash, Valid: passwordHash != ""},
		unix(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user: %w", ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdatePasswordHash(id int64, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// Delete removes the user. Sessions, reset tokens, resumes, letters and
// applications go with it through ON DELETE CASCADE.
func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
