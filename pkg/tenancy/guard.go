package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Caller describes the authenticated identity as seen by the access guard.
// The guard only needs the stable global identifier and the super-admin bit;
// it deliberately knows nothing about the identity model.
type Caller struct {
	GlobalID   uuid.UUID
	SuperAdmin bool
}

// CallerFunc extracts the authenticated caller from the request context.
// Returns false when the request carries no authenticated identity.
type CallerFunc func(ctx context.Context) (Caller, bool)

// AccessGuard authorizes a caller against a resolved tenant before any store
// switch occurs. The association check must read the central store: running
// it after Enter would consult the tenant's store for a table that only
// exists centrally, silently authorizing everyone.
type AccessGuard struct {
	associations AssociationChecker
	caller       CallerFunc
}

// NewAccessGuard creates a guard backed by the central association table.
func NewAccessGuard(associations AssociationChecker, caller CallerFunc) *AccessGuard {
	return &AccessGuard{
		associations: associations,
		caller:       caller,
	}
}

// Authorize decides whether the current caller may enter the tenant.
//
// Pass-through when there is no authenticated identity (an upstream
// authentication step owns that failure). Super-admins are allowed
// unconditionally. Everyone else needs an association row.
func (g *AccessGuard) Authorize(ctx context.Context, tenantID uuid.UUID) error {
	caller, ok := g.caller(ctx)
	if !ok {
		return nil
	}

	if caller.SuperAdmin {
		return nil
	}

	allowed, err := g.associations.Exists(ctx, caller.GlobalID, tenantID)
	if err != nil {
		return errors.Join(ErrAccessDenied, err)
	}
	if !allowed {
		return ErrAccessDenied
	}

	return nil
}
