package ctxutil

import (
	"context"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
)

// Actor is the authenticated operator behind a request.
type Actor struct {
	UserID   string
	Username string
	Name     string
	Role     string
}

// WithActor stores the acting user in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromCtx extracts the acting user from the context.
// Returns false if the value is missing or has no user id.
func ActorFromCtx(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	if !ok || a.UserID == "" {
		return Actor{}, false
	}
	return a, true
}

// ActorNameFromCtx returns the display name of the acting user, or fallback
// when the context carries none.
func ActorNameFromCtx(ctx context.Context, fallback string) string {
	a, ok := ActorFromCtx(ctx)
	if !ok || a.Name == "" {
		return fallback
	}
	return a.Name
}

// IsAdminCtx reports whether the acting user has the admin role.
func IsAdminCtx(ctx context.Context) bool {
	a, ok := ActorFromCtx(ctx)
	return ok && a.Role == "admin"
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
