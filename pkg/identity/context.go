package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// Principal is the in-memory authenticated identity for a request. Before a
// tenant context is entered it presents the central identity; after
// substitution it presents the tenant mirror, so authorization checks use
// tenant-scoped roles. Super-admins always present the central identity.
type Principal struct {
	GlobalID   uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	SuperAdmin bool

	// Roles are tenant-scoped and only populated after substitution.
	Roles []string

	// TenantID is the tenant whose mirror row backs this principal,
	// nil while the principal is the central identity.
	TenantID *uuid.UUID
}

// HasRole reports whether the principal carries the given tenant-scoped role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithPrincipal attaches the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext retrieves the authenticated principal.
// Returns nil, false if the request is unauthenticated.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok && p != nil
}

// CallerFromContext adapts the principal to the access guard's caller view.
func CallerFromContext(ctx context.Context) (tenancy.Caller, bool) {
	p, ok := FromContext(ctx)
	if !ok {
		return tenancy.Caller{}, false
	}
	return tenancy.Caller{GlobalID: p.GlobalID, SuperAdmin: p.SuperAdmin}, true
}

// PrincipalFromCentral builds the pre-substitution principal for a central identity.
func PrincipalFromCentral(ci *CentralIdentity) *Principal {
	return &Principal{
		GlobalID:   ci.GlobalID,
		FirstName:  ci.FirstName,
		LastName:   ci.LastName,
		Email:      ci.Email,
		SuperAdmin: ci.SuperAdmin,
	}
}

// LoggerExtractor returns a ContextExtractor for the logger that enriches
// log records with the authenticated principal's global ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if p, ok := FromContext(ctx); ok {
			return slog.String("global_id", p.GlobalID.String()), true
		}
		return slog.Attr{}, false
	}
}
