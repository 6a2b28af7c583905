package identity

import (
	"context"

	"github.com/google/uuid"
)

// CentralStore persists authoritative identity records in the central store.
type CentralStore interface {
	// GetByGlobalID retrieves the central identity for a global ID.
	// Returns ErrIdentityNotFound if none exists.
	GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*CentralIdentity, error)

	// UpdateSynced writes the synced attribute set on the central identity.
	UpdateSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error
}

// MirrorStore persists tenant-local identity mirrors inside one tenant store.
type MirrorStore interface {
	// GetByGlobalID retrieves the mirror row for a global ID.
	// Returns ErrMirrorNotFound if none exists.
	GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*TenantIdentity, error)

	// UpsertSynced writes the synced attribute set on the mirror row,
	// creating the row when missing. Tenant-local roles are left untouched.
	UpsertSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error
}

// MirrorOpener yields the mirror store for one tenant's isolated database.
// The synchronizer uses it to fan out writes without an HTTP request context.
type MirrorOpener func(ctx context.Context, tenantID uuid.UUID) (MirrorStore, error)

// AssociationStore manages the central many-to-many access relation between
// global identities and tenants.
type AssociationStore interface {
	// Exists reports whether the identity is associated with the tenant.
	Exists(ctx context.Context, globalID, tenantID uuid.UUID) (bool, error)

	// ListTenants returns every tenant the identity is associated with.
	ListTenants(ctx context.Context, globalID uuid.UUID) ([]uuid.UUID, error)

	// Add creates an association. Idempotent.
	Add(ctx context.Context, globalID, tenantID uuid.UUID) error

	// Remove deletes an association. Idempotent.
	Remove(ctx context.Context, globalID, tenantID uuid.UUID) error
}
