package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"
)

// ActorIDFromContext returns nil when the request carried no actor.
func ActorIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxActorID).(uuid.UUID); ok && v != uuid.Nil {
		return &v
	}
	return nil
}

// ActorRoleFromContext returns the role carried by a signed actor token, or
// "" when the actor was resolved without one.
func ActorRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the acting user into the context.
func WithActor(ctx context.Context, actorID uuid.UUID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, actorID)
	if role != "" {
		ctx = context.WithValue(ctx, ctxActorRole, role)
	}
	return ctx
}
