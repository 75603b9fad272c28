package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/enums"
)

type contextKey string

const (
	ctxActor     contextKey = "actor"
	ctxAccessJWT contextKey = "access_token"
)

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	if ctx == nil {
		return auth.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(auth.Actor)
	return actor, ok && actor.UserID != uuid.Nil
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.Role {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.Role
	}
	return ""
}

// IsStaffContext reports whether the caller is an admin or staff member.
func IsStaffContext(ctx context.Context) bool {
	actor, ok := ActorFromContext(ctx)
	return ok && actor.IsStaff()
}

// AccessTokenFromContext returns the raw bearer token the request authenticated with.
func AccessTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxAccessJWT).(string)
	return v
}
