package model

import "time"

// Session is a bearer session. The token is the primary key.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidAt reports whether the session has not yet expired at t.
func (s *Session) ValidAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}

// PasswordReset is a single-use password reset token.
type PasswordReset struct {
	Token     string     `json:"-"`
	UserID    int64      `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// UsableAt reports whether the token is unused and unexpired at t.
func (p *PasswordReset) UsableAt(t time.Time) bool {
	return p.UsedAt == nil && t.Before(p.ExpiresAt)
}
