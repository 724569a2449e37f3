package auth

import (
	"context"

	"github.com/dukerupert/fitletter/internal/model"
)

type contextKey struct{}

// AuthContext is the authenticated identity attached to a request.
type AuthContext struct {
	User    *model.User
	Session *model.Session
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok || ac.User == nil {
		return 0
	}
	return ac.User.ID
}

func User(ctx context.Context) *model.User {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.User
}
