package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

// MinPasswordLength applies to sign-up and password reset.
const MinPasswordLength = 8

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a password account. The unique constraint on email is the
// authority for duplicates; the lookup beforehand only short-circuits the
// hash for the common case.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	const op = "sign up"
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, ValidationError(op, "Email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, ValidationError(op, "Password must be at least 8 characters")
	}

	users := m.backend.Stores().Users
	existing, err := users.GetByEmail(email)
	if err != nil {
		return nil, newError(KindDB, op, "check existing user", err)
	}
	if existing != nil {
		return nil, newError(KindUserExists, op, "", nil)
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, newError(KindUserCreateFailed, op, "hash password", err)
	}
	u, err := users.Create(email, name, hash, m.now())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, newError(KindUserExists, op, "unique constraint", err)
		}
		return nil, newError(KindUserCreateFailed, op, "", err)
	}
	return u, nil
}

// SignIn checks credentials. Unknown email, passwordless account and wrong
// password all fail with the same KindInvalidCredentials; only Reason differs.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	const op = "sign in"
	email = NormalizeEmail(email)

	u, err := m.backend.Stores().Users.GetByEmail(email)
	if err != nil {
		return nil, newError(KindDB, op, "fetch user", err)
	}
	if u == nil {
		m.compareDummy(password)
		return nil, newError(KindInvalidCredentials, op, "unknown email", nil)
	}
	if !u.HasPassword() {
		m.compareDummy(password)
		return nil, newError(KindInvalidCredentials, op, "no password set", nil)
	}

	ok, err := m.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, newError(KindInvalidCredentials, op, "unreadable hash", err)
	}
	if !ok {
		return nil, newError(KindInvalidCredentials, op, "password mismatch", nil)
	}
	return u, nil
}

// DeleteAccount removes the user and everything they own, then clears the
// session cookie.
func (m *Manager) DeleteAccount(ctx context.Context, w http.ResponseWriter, userID int64) error {
	if err := m.backend.Stores().Users.Delete(userID); err != nil {
		return newError(KindDB, "delete account", "", err)
	}
	m.clearCookie(w)
	return nil
}
