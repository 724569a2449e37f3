package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicMapping(t *testing.T) {
	cause := errors.New("disk I/O error")
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"user exists", newError(KindUserExists, "sign up", "", nil), http.StatusConflict, "User already exists with this email"},
		{"unknown email", newError(KindInvalidCredentials, "sign in", "unknown email", nil), http.StatusUnauthorized, "Invalid email or password"},
		{"wrong password", newError(KindInvalidCredentials, "sign in", "password mismatch", nil), http.StatusUnauthorized, "Invalid email or password"},
		{"bad token", newError(KindInvalidOrExpiredToken, "consume reset", "", nil), http.StatusBadRequest, "Invalid or expired token"},
		{"validation", ValidationError("sign up", "Name is required"), http.StatusBadRequest, "Name is required"},
		{"db", newError(KindDB, "sign in", "fetch user", cause), http.StatusInternalServerError, "Internal server error"},
		{"user create", newError(KindUserCreateFailed, "sign up", "", cause), http.StatusInternalServerError, "Internal server error"},
		{"session create", newError(KindSessionCreateFailed, "create session", "", cause), http.StatusInternalServerError, "Internal server error"},
		{"foreign error", cause, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Public(tt.err)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.message, p.Message)
			assert.NotContains(t, p.Message, "disk")
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", newError(KindUserExists, "sign up", "unique constraint", nil))

	assert.ErrorIs(t, err, ErrUserExists)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindUserExists, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorMessageCarriesDetail(t *testing.T) {
	cause := errors.New("constraint failed")
	err := newError(KindUserCreateFailed, "sign up", "insert", cause)

	assert.Equal(t, "sign up: user_create_failed (insert): constraint failed", err.Error())
	assert.ErrorIs(t, err, cause)
}
