package tenancy

import (
	"context"
	"errors"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// ProvisioningStatus tracks a tenant store through its creation pipeline.
type ProvisioningStatus string

const (
	StatusPending   ProvisioningStatus = "pending"
	StatusMigrating ProvisioningStatus = "migrating"
	StatusReady     ProvisioningStatus = "ready"
	StatusFailed    ProvisioningStatus = "failed"
)

// ErrProvisioningNotFound is returned when no provisioning record exists for
// a tenant.
var ErrProvisioningNotFound = errors.New("provisioning record not found")

// ProvisioningRecord is the central record consumers poll while a tenant
// store is being prepared.
type ProvisioningRecord struct {
	TenantID  uuid.UUID
	Status    ProvisioningStatus
	Error     string
	UpdatedAt time.Time
}

// Ready reports whether the tenant store can serve requests.
func (r *ProvisioningRecord) Ready() bool {
	return r != nil && r.Status == StatusReady
}

// ProvisioningStore persists provisioning progress in the central store.
type ProvisioningStore interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*ProvisioningRecord, error)
	Set(ctx context.Context, tenantID uuid.UUID, status ProvisioningStatus, errMsg string) error
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGProvisioningStore stores provisioning records in the central
// tenant_provisioning table.
type PGProvisioningStore struct {
	db tenantpkg.Querier
}

func NewPGProvisioningStore(db tenantpkg.Querier) *PGProvisioningStore {
	return &PGProvisioningStore{db: db}
}

func (s *PGProvisioningStore) Get(ctx context.Context, tenantID uuid.UUID) (*ProvisioningRecord, error) {
	query, args, err := psql.
		Select("tenant_id", "status", "error", "updated_at").
		From("tenant_provisioning").
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec := &ProvisioningRecord{}
	err = s.db.QueryRow(ctx, query, args...).Scan(&rec.TenantID, &rec.Status, &rec.Error, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProvisioningNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *PGProvisioningStore) Set(ctx context.Context, tenantID uuid.UUID, status ProvisioningStatus, errMsg string) error {
	query, args, err := psql.
		Insert("tenant_provisioning").
		Columns("tenant_id", "status", "error", "updated_at").
		Values(tenantID, status, errMsg, time.Now()).
		Suffix("ON CONFLICT (tenant_id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}

// MemoryProvisioningStore is an in-memory ProvisioningStore for tests.
type MemoryProvisioningStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*ProvisioningRecord
}

func NewMemoryProvisioningStore() *MemoryProvisioningStore {
	return &MemoryProvisioningStore{records: make(map[uuid.UUID]*ProvisioningRecord)}
}

func (s *MemoryProvisioningStore) Get(ctx context.Context, tenantID uuid.UUID) (*ProvisioningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[tenantID]
	if !ok {
		return nil, ErrProvisioningNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryProvisioningStore) Set(ctx context.Context, tenantID uuid.UUID, status ProvisioningStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[tenantID] = &ProvisioningRecord{
		TenantID:  tenantID,
		Status:    status,
		Error:     errMsg,
		UpdatedAt: time.Now(),
	}
	return nil
}
