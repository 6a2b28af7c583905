package crossref

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory cross-reference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Put(ctx context.Context, externalID string, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[externalID] = Entry{
		ExternalID: externalID,
		TenantID:   tenantID,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (s *MemoryStore) Resolve(ctx context.Context, externalID string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[externalID]
	if !ok {
		return uuid.UUID{}, ErrNotFound
	}
	return entry.TenantID, nil
}

func (s *MemoryStore) Delete(ctx context.Context, externalID string) error {
	s.mu.Lock()
	delete(s.entries, externalID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteForTenant(ctx context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if entry.TenantID == tenantID {
			delete(s.entries, id)
		}
	}
	return nil
}
