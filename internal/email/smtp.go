package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPClient sends mail through an SMTP relay.
type SMTPClient struct {
	fromEmail string
	dialer    sender
}

func NewSMTPClient(host string, port int, username, password, fromEmail string) *SMTPClient {
	return &SMTPClient{
		fromEmail: fromEmail,
		dialer:    gomail.NewDialer(host, port, username, password),
	}
}

// SendPasswordReset mails a password reset link. gomail has no context
// support; ctx is only checked before dialing.
func (c *SMTPClient) SendPasswordReset(ctx context.Context, toEmail, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	textBody, htmlBody := passwordResetBodies(link)
	m := gomail.NewMessage()
	m.SetHeader("From", c.fromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
