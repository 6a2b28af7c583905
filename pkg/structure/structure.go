package structure

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Structure is a tenant-local location entity. Scoped business entities
// carry a structure_id foreign key pointing at a structure of the same
// tenant; cross-tenant structure references cannot exist because each
// tenant's structures live in its own isolated database.
type Structure struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists structures inside the active tenant store.
type Store interface {
	// GetByID retrieves a structure.
	// Returns ErrStructureNotFound if none matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Structure, error)

	// First returns the first structure by creation order, the deterministic
	// default when neither session nor cookie carry a scope.
	// Returns ErrNoStructures when the tenant has none.
	First(ctx context.Context) (*Structure, error)

	// List returns all structures of the tenant.
	List(ctx context.Context) ([]*Structure, error)

	// Create persists a new structure.
	Create(ctx context.Context, s *Structure) error
}
