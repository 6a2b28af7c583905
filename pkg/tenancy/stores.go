package tenancy

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool behavior the stores rely on.
// Both the central pool and per-tenant pools satisfy it, as do transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoreResolver maps a tenant to a handle on its isolated database.
type StoreResolver interface {
	// Resolve returns the tenant's store handle.
	// Returns ErrStoreUnresolvable if no store can be opened for the tenant.
	Resolve(ctx context.Context, tenant *Tenant) (Querier, error)
}

// ConnectFunc opens a connection pool for a DSN. Wired to pg.Connect in
// production, replaceable in tests.
type ConnectFunc func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// PoolRegistry lazily opens and caches one pgx pool per tenant database.
// Safe for concurrent use across requests.
type PoolRegistry struct {
	mu      sync.RWMutex
	connect ConnectFunc
	pools   map[uuid.UUID]*pgxpool.Pool
}

// NewPoolRegistry creates a registry that opens tenant pools with connect.
func NewPoolRegistry(connect ConnectFunc) *PoolRegistry {
	return &PoolRegistry{
		connect: connect,
		pools:   make(map[uuid.UUID]*pgxpool.Pool),
	}
}

// Resolve returns the cached pool for the tenant, opening it on first use.
func (r *PoolRegistry) Resolve(ctx context.Context, tenant *Tenant) (Querier, error) {
	if tenant == nil || tenant.StoreDSN == "" {
		return nil, ErrStoreUnresolvable
	}

	r.mu.RLock()
	pool, ok := r.pools[tenant.ID]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another request may have opened the pool while we waited for the lock.
	if pool, ok := r.pools[tenant.ID]; ok {
		return pool, nil
	}

	pool, err := r.connect(ctx, tenant.StoreDSN)
	if err != nil {
		return nil, errors.Join(ErrStoreUnresolvable, err)
	}

	r.pools[tenant.ID] = pool
	return pool, nil
}

// Evict closes and forgets the pool for a tenant, if one is open.
// Called when a tenant is deleted or its DSN changes.
func (r *PoolRegistry) Evict(tenantID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pool, ok := r.pools[tenantID]; ok {
		pool.Close()
		delete(r.pools, tenantID)
	}
}

// Close closes every open tenant pool.
func (r *PoolRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, pool := range r.pools {
		pool.Close()
		delete(r.pools, id)
	}
}

// StoreResolverFunc is an adapter to allow ordinary functions as StoreResolvers.
type StoreResolverFunc func(ctx context.Context, tenant *Tenant) (Querier, error)

// Resolve calls the function.
func (f StoreResolverFunc) Resolve(ctx context.Context, tenant *Tenant) (Querier, error) {
	return f(ctx, tenant)
}
