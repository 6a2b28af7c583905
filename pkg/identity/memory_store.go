package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCentralStore is an in-memory CentralStore for tests and prototyping.
type MemoryCentralStore struct {
	mu         sync.RWMutex
	nextID     int64
	identities map[uuid.UUID]*CentralIdentity
}

// NewMemoryCentralStore creates an empty in-memory central store.
func NewMemoryCentralStore() *MemoryCentralStore {
	return &MemoryCentralStore{identities: make(map[uuid.UUID]*CentralIdentity)}
}

// Create registers a central identity, assigning a local ID.
func (s *MemoryCentralStore) Create(ctx context.Context, ci *CentralIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	cp := *ci
	cp.ID = s.nextID
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.identities[ci.GlobalID] = &cp
	return nil
}

func (s *MemoryCentralStore) GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*CentralIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ci, ok := s.identities[globalID]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	cp := *ci
	return &cp, nil
}

func (s *MemoryCentralStore) UpdateSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, ok := s.identities[globalID]
	if !ok {
		return ErrIdentityNotFound
	}
	ci.FirstName = attrs.FirstName
	ci.LastName = attrs.LastName
	ci.Email = attrs.Email
	ci.PasswordHash = attrs.PasswordHash
	ci.UpdatedAt = time.Now()
	return nil
}

// MemoryMirrorStore is an in-memory MirrorStore representing one tenant's
// identities table.
type MemoryMirrorStore struct {
	mu      sync.RWMutex
	nextID  int64
	mirrors map[uuid.UUID]*TenantIdentity
}

// NewMemoryMirrorStore creates an empty in-memory mirror store.
func NewMemoryMirrorStore() *MemoryMirrorStore {
	return &MemoryMirrorStore{mirrors: make(map[uuid.UUID]*TenantIdentity)}
}

func (s *MemoryMirrorStore) GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*TenantIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ti, ok := s.mirrors[globalID]
	if !ok {
		return nil, ErrMirrorNotFound
	}
	cp := *ti
	cp.Roles = append([]string(nil), ti.Roles...)
	return &cp, nil
}

func (s *MemoryMirrorStore) UpsertSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, ok := s.mirrors[globalID]
	if !ok {
		s.nextID++
		now := time.Now()
		s.mirrors[globalID] = &TenantIdentity{
			ID:           s.nextID,
			GlobalID:     globalID,
			FirstName:    attrs.FirstName,
			LastName:     attrs.LastName,
			Email:        attrs.Email,
			PasswordHash: attrs.PasswordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return nil
	}

	ti.FirstName = attrs.FirstName
	ti.LastName = attrs.LastName
	ti.Email = attrs.Email
	ti.PasswordHash = attrs.PasswordHash
	ti.UpdatedAt = time.Now()
	return nil
}

// SetRoles assigns tenant-local roles, outside the synced attribute set.
func (s *MemoryMirrorStore) SetRoles(ctx context.Context, globalID uuid.UUID, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, ok := s.mirrors[globalID]
	if !ok {
		return ErrMirrorNotFound
	}
	ti.Roles = append([]string(nil), roles...)
	return nil
}

// Delete removes the mirror row. Deleting a mirror never touches the
// central identity.
func (s *MemoryMirrorStore) Delete(ctx context.Context, globalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mirrors, globalID)
	return nil
}

// Len reports how many mirror rows the store holds.
func (s *MemoryMirrorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mirrors)
}

// MemoryAssociationStore is an in-memory AssociationStore.
type MemoryAssociationStore struct {
	mu    sync.RWMutex
	edges map[uuid.UUID][]uuid.UUID // global_id -> tenant IDs, insertion ordered
}

// NewMemoryAssociationStore creates an empty in-memory association store.
func NewMemoryAssociationStore() *MemoryAssociationStore {
	return &MemoryAssociationStore{edges: make(map[uuid.UUID][]uuid.UUID)}
}

func (s *MemoryAssociationStore) Exists(ctx context.Context, globalID, tenantID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.edges[globalID] {
		if id == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryAssociationStore) ListTenants(ctx context.Context, globalID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uuid.UUID(nil), s.edges[globalID]...), nil
}

func (s *MemoryAssociationStore) Add(ctx context.Context, globalID, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.edges[globalID] {
		if id == tenantID {
			return nil
		}
	}
	s.edges[globalID] = append(s.edges[globalID], tenantID)
	return nil
}

func (s *MemoryAssociationStore) Remove(ctx context.Context, globalID, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.edges[globalID]
	for i, id := range ids {
		if id == tenantID {
			s.edges[globalID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}
