package structure_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/structure"
	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

type nopStore struct{}

func (nopStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (nopStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (nopStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func enteredTenantContext(t *testing.T, tenantID uuid.UUID) context.Context {
	t.Helper()

	resolver := tenancy.StoreResolverFunc(func(ctx context.Context, tenant *tenancy.Tenant) (tenancy.Querier, error) {
		return nopStore{}, nil
	})
	tc := tenancy.NewContext(nopStore{}, resolver)
	ctx := tenancy.WithContext(context.Background(), tc)

	require.NoError(t, tc.Enter(ctx, &tenancy.Tenant{
		ID:       tenantID,
		Slug:     "acme",
		Active:   true,
		StoreDSN: "postgres://acme",
	}))
	return ctx
}

func TestMemoryStore_TenantIsolation(t *testing.T) {
	t.Parallel()

	store := structure.NewMemoryStore()
	tenantA := uuid.New()
	tenantB := uuid.New()

	ctxA := enteredTenantContext(t, tenantA)
	ctxB := enteredTenantContext(t, tenantB)

	// Tenant A has two structures, tenant B has one.
	hq := &structure.Structure{Name: "HQ", City: "Berlin"}
	require.NoError(t, store.Create(ctxA, hq))
	require.NoError(t, store.Create(ctxA, &structure.Structure{Name: "Warehouse", City: "Hamburg"}))
	require.NoError(t, store.Create(ctxB, &structure.Structure{Name: "Office", City: "Lisbon"}))

	listA, err := store.List(ctxA)
	require.NoError(t, err)
	assert.Len(t, listA, 2)

	listB, err := store.List(ctxB)
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, "Office", listB[0].Name)

	// First is creation order, per tenant.
	first, err := store.First(ctxA)
	require.NoError(t, err)
	assert.Equal(t, "HQ", first.Name)

	// Lookups never cross the tenant boundary.
	_, err = store.GetByID(ctxB, hq.ID)
	assert.ErrorIs(t, err, structure.ErrStructureNotFound)

	got, err := store.GetByID(ctxA, hq.ID)
	require.NoError(t, err)
	assert.Equal(t, "HQ", got.Name)
}

func TestMemoryStore_RequiresTenantScope(t *testing.T) {
	t.Parallel()

	store := structure.NewMemoryStore()

	_, err := store.List(context.Background())
	assert.ErrorIs(t, err, tenancy.ErrNoContext)

	_, err = store.First(enteredTenantContext(t, uuid.New()))
	assert.ErrorIs(t, err, structure.ErrNoStructures)
}
