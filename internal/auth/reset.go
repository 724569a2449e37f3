package auth

import (
	"context"
	"net/url"
	"strings"
)

func (m *Manager) resetLink(token string) string {
	return strings.TrimRight(m.cfg.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// RequestReset issues a reset token for email if an account exists and sends
// the link. Callers must reply identically whatever this returns; the error
// is for logging only.
func (m *Manager) RequestReset(ctx context.Context, email string) error {
	const op = "request reset"
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	stores := m.backend.Stores()
	u, err := stores.Users.GetByEmail(email)
	if err != nil {
		return newError(KindDB, op, "fetch user", err)
	}
	if u == nil {
		return nil
	}

	token, err := generateToken()
	if err != nil {
		return newError(KindDB, op, "token", err)
	}
	now := m.now()
	if _, err := stores.Resets.Create(token, u.ID, now.Add(m.cfg.ResetTTL), now); err != nil {
		return newError(KindDB, op, "store token", err)
	}

	link := m.resetLink(token)
	if m.mailer == nil {
		m.logger.Info("password reset link", "email", u.Email, "url", link)
		return nil
	}
	m.sendReset(ctx, u.Email, link)
	return nil
}

// sendReset delivers the link off the request path, so a reply for a known
// address takes no longer than one for an unknown address. Send failures are
// logged only.
func (m *Manager) sendReset(ctx context.Context, to, link string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetMailTimeout)
	m.mail.Add(1)
	go func() {
		defer m.mail.Done()
		defer cancel()
		if err := m.mailer.SendPasswordReset(ctx, to, link); err != nil {
			m.logger.Error("send password reset", "error", err)
		}
	}()
}

// ConsumeReset sets a new password using a reset token and revokes the
// user's sessions. The token must be unused and unexpired. Write ordering
// follows Config.Ordering.
func (m *Manager) ConsumeReset(ctx context.Context, token, newPassword string) error {
	const op = "consume reset"
	if len(newPassword) < MinPasswordLength {
		return ValidationError(op, "Password must be at least 8 characters")
	}
	if token == "" {
		return newError(KindInvalidOrExpiredToken, op, "empty token", nil)
	}

	now := m.now()
	reset, err := m.backend.Stores().Resets.GetUsable(token, now)
	if err != nil {
		return newError(KindDB, op, "fetch token", err)
	}
	if reset == nil || !reset.UsableAt(now) {
		return newError(KindInvalidOrExpiredToken, op, "no usable token", nil)
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return newError(KindDB, op, "hash password", err)
	}

	apply := func(s Stores) error {
		used, err := s.Resets.MarkUsed(token, now)
		if err != nil {
			return newError(KindDB, op, "mark used", err)
		}
		if !used {
			return newError(KindInvalidOrExpiredToken, op, "already consumed", nil)
		}
		if err := s.Users.UpdatePasswordHash(reset.UserID, hash); err != nil {
			return newError(KindDB, op, "update password", err)
		}
		if err := s.Sessions.DeleteByUserID(reset.UserID); err != nil {
			return newError(KindDB, op, "revoke sessions", err)
		}
		return nil
	}

	if m.cfg.Ordering == OrderingBurnFirst {
		err = apply(m.backend.Stores())
	} else {
		err = m.backend.InTx(ctx, apply)
	}
	if err != nil {
		if KindOf(err) == "" {
			return newError(KindDB, op, "transaction", err)
		}
		return err
	}

	m.logger.Info("password reset", "user_id", reset.UserID, "ordering", m.cfg.Ordering)
	return nil
}
