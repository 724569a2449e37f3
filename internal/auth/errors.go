package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an auth failure. Kinds are internal; clients only ever see
// the PublicError produced by Public.
type Kind string

const (
	KindUserExists            Kind = "user_exists"
	KindUserCreateFailed      Kind = "user_create_failed"
	KindSessionCreateFailed   Kind = "session_create_failed"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindInvalidOrExpiredToken Kind = "invalid_or_expired_token"
	KindDB                    Kind = "db_error"
	KindValidation            Kind = "validation"
)

// Error is the detailed error carried through the auth layer and logged
// server-side. Reason may name the precise cause (e.g. "unknown email") and
// must never be written to a response.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, auth.ErrInvalidCredentials).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUserExists            = &Error{Kind: KindUserExists}
	ErrUserCreateFailed      = &Error{Kind: KindUserCreateFailed}
	ErrSessionCreateFailed   = &Error{Kind: KindSessionCreateFailed}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken}
	ErrDB                    = &Error{Kind: KindDB}
	ErrValidation            = &Error{Kind: KindValidation}
)

func newError(kind Kind, op, reason string, err error) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason, Err: err}
}

// ValidationError builds a KindValidation error whose Reason is safe to show
// to the client.
func ValidationError(op, message string) *Error {
	return newError(KindValidation, op, message, nil)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// PublicError is the narrowed error surface written to HTTP responses.
type PublicError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (p PublicError) Error() string {
	return fmt.Sprintf("%d %s", p.Status, p.Message)
}

const (
	msgUserExists         = "User already exists with this email"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidToken       = "Invalid or expired token"
	msgInternal           = "Internal server error"
)

// Public maps any error to the message a client is allowed to see.
// InvalidCredentials collapses every cause to one message; store and
// unknown failures collapse to a generic 500.
func Public(err error) PublicError {
	var ae *Error
	if !errors.As(err, &ae) {
		return PublicError{Status: http.StatusInternalServerError, Message: msgInternal}
	}
	switch ae.Kind {
	case KindUserExists:
		return PublicError{Status: http.StatusConflict, Message: msgUserExists}
	case KindInvalidCredentials:
		return PublicError{Status: http.StatusUnauthorized, Message: msgInvalidCredentials}
	case KindInvalidOrExpiredToken:
		return PublicError{Status: http.StatusBadRequest, Message: msgInvalidToken}
	case KindValidation:
		msg := ae.Reason
		if msg == "" {
			msg = "Invalid request"
		}
		return PublicError{Status: http.StatusBadRequest, Message: msg}
	default:
		return PublicError{Status: http.StatusInternalServerError, Message: msgInternal}
	}
}
