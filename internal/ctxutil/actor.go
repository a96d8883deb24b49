// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting caller.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// Actor identifies the caller on whose behalf an operation runs.
type Actor struct {
	Username string
	Role     string // "reader" or "administrator"
}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the actor from context, or the zero Actor if not set.
func ActorFromContext(ctx context.Context) Actor {
	if v := ctx.Value(ActorKey{}); v != nil {
		return v.(Actor)
	}
	return Actor{}
}
