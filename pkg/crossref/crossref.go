package crossref

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry maps an externally-tracked identifier to its owning tenant. Written
// in the central store the moment a tenant operation hands the identifier to
// an external async system, so later callbacks arriving without tenant
// context resolve their tenant in O(1) instead of scanning every tenant
// database.
type Entry struct {
	ExternalID string    `json:"external_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists the central external-ID index. External IDs are unique:
// re-putting an existing ID repoints it.
type Store interface {
	// Put records the external ID as owned by the tenant. Callers invoke it
	// inside the same logical operation that created the external reference,
	// so the index and the reference cannot drift apart for long.
	Put(ctx context.Context, externalID string, tenantID uuid.UUID) error

	// Resolve returns the owning tenant for an external ID.
	// Returns ErrNotFound if the ID was never recorded.
	Resolve(ctx context.Context, externalID string) (uuid.UUID, error)

	// Delete removes a single entry.
	Delete(ctx context.Context, externalID string) error

	// DeleteForTenant removes every entry owned by a tenant, the cascade
	// step of tenant deletion.
	DeleteForTenant(ctx context.Context, tenantID uuid.UUID) error
}
