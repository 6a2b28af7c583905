package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated customer organization. Each tenant owns a
// dedicated database referenced by StoreDSN; this package only routes to it,
// provisioning happens elsewhere.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	StoreDSN  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider loads tenant records from the central registry.
type Provider interface {
	// GetByID retrieves a tenant by its identifier.
	// Returns ErrTenantNotFound if no tenant matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// AssociationChecker answers whether a central identity is allowed into a
// tenant. Backed by the central association table, never a tenant store.
type AssociationChecker interface {
	Exists(ctx context.Context, globalID, tenantID uuid.UUID) (bool, error)
}
