package identity

import (
	"time"

	"github.com/google/uuid"
)

// CentralIdentity is the authoritative record of a person, held in the
// central store. The stable GlobalID identifies the same logical person
// across the central store and every tenant store; local auto-increment IDs
// differ per store and must never be used for cross-store correlation.
type CentralIdentity struct {
	ID           int64     `json:"-"`
	GlobalID     uuid.UUID `json:"global_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	SuperAdmin   bool      `json:"super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TenantIdentity is the per-tenant mirror of a central identity, linked by
// GlobalID. It is a mirror, not a master: the synced attribute set is owned
// centrally, while Roles are tenant-local authorization state that outgoing
// sync must never overwrite.
type TenantIdentity struct {
	ID           int64     `json:"-"`
	GlobalID     uuid.UUID `json:"global_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SyncedAttributes is the fixed, explicit allow-list of fields propagated
// from the central identity to its tenant mirrors. Authorization fields are
// intentionally excluded.
type SyncedAttributes struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// Synced extracts the propagated attribute set from a central identity.
func (ci *CentralIdentity) Synced() SyncedAttributes {
	return SyncedAttributes{
		FirstName:    ci.FirstName,
		LastName:     ci.LastName,
		Email:        ci.Email,
		PasswordHash: ci.PasswordHash,
	}
}
