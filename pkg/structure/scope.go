package structure

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionKeyStructure is the session key carrying the active structure.
	SessionKeyStructure = "current_structure_id"

	// CookieNameStructure mirrors the session value in a long-lived cookie
	// so the scope survives session resets.
	CookieNameStructure = "current_structure_id"

	// CookieMaxAge keeps the structure cookie alive for about a year.
	CookieMaxAge = 365 * 24 * time.Hour
)

// Scope is the resolved structure partition for one request, evaluated once
// and cached forward in the context.
type Scope struct {
	StructureID uuid.UUID
}

type scopeKey struct{}
type bypassKey struct{}

// WithScope attaches the resolved structure scope to the context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// FromContext retrieves the resolved structure scope.
func FromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(Scope)
	return scope, ok
}

// WithoutScope marks the context as explicitly unscoped: query helpers stop
// filtering by structure. Cross-structure administrative access must opt in
// through this, never get it by default.
func WithoutScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// Bypassed reports whether the scope filter was explicitly opted out of.
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// ID returns the scoped structure ID.
// Returns ErrNoScope when none is attached.
func ID(ctx context.Context) (uuid.UUID, error) {
	scope, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, ErrNoScope
	}
	return scope.StructureID, nil
}

// Default resolves the structure_id for a create operation: an explicit
// caller-supplied value always wins; only the zero UUID falls back to the
// scope attached to the context.
func Default(ctx context.Context, explicit uuid.UUID) (uuid.UUID, error) {
	if explicit != uuid.Nil {
		return explicit, nil
	}
	return ID(ctx)
}
