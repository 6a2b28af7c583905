package structure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// MemoryStore is an in-memory Store for tests. Rows are partitioned by the
// active tenant on the context, mimicking physically isolated tenant stores.
type MemoryStore struct {
	mu       sync.RWMutex
	byTenant map[uuid.UUID][]*Structure
}

// NewMemoryStore creates an empty in-memory structure store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTenant: make(map[uuid.UUID][]*Structure)}
}

func (s *MemoryStore) tenantID(ctx context.Context) (uuid.UUID, error) {
	tenant, ok := tenancy.CurrentTenant(ctx)
	if !ok {
		return uuid.UUID{}, tenancy.ErrNoContext
	}
	return tenant.ID, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Structure, error) {
	tid, err := s.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.byTenant[tid] {
		if st.ID == id {
			cp := *st
			return &cp, nil
		}
	}
	return nil, ErrStructureNotFound
}

func (s *MemoryStore) First(ctx context.Context) (*Structure, error) {
	tid, err := s.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.byTenant[tid]
	if len(rows) == 0 {
		return nil, ErrNoStructures
	}
	cp := *rows[0]
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Structure, error) {
	tid, err := s.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Structure, 0, len(s.byTenant[tid]))
	for _, st := range s.byTenant[tid] {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, st *Structure) error {
	tid, err := s.tenantID(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	st.ID = cp.ID
	s.byTenant[tid] = append(s.byTenant[tid], &cp)
	return nil
}
