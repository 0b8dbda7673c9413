package userctx

import (
	"context"

	"github.com/nkiryanov/gatekeeper/internal/models"
)

type ctxKey string

const sessionKey ctxKey = "session"

// Create a new context with verified access token claims
func New(ctx context.Context, claims models.SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, claims)
}

// Extract the session claims from the context
func FromContext(ctx context.Context) (models.SessionClaims, bool) {
	c, ok := ctx.Value(sessionKey).(models.SessionClaims)
	return c, ok
}
