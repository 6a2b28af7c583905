package crossref_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/crossref"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := crossref.NewMemoryStore()

	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, store.Put(ctx, "sub_123", tenantA))
	require.NoError(t, store.Put(ctx, "sub_456", tenantA))
	require.NoError(t, store.Put(ctx, "sub_789", tenantB))

	t.Run("resolve", func(t *testing.T) {
		got, err := store.Resolve(ctx, "sub_123")
		require.NoError(t, err)
		assert.Equal(t, tenantA, got)

		_, err = store.Resolve(ctx, "missing")
		assert.ErrorIs(t, err, crossref.ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "sub_456", tenantB))
		got, err := store.Resolve(ctx, "sub_456")
		require.NoError(t, err)
		assert.Equal(t, tenantB, got)
	})

	t.Run("delete single entry", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "sub_123"))
		_, err := store.Resolve(ctx, "sub_123")
		assert.ErrorIs(t, err, crossref.ErrNotFound)

		// Deleting an absent entry is a no-op.
		assert.NoError(t, store.Delete(ctx, "sub_123"))
	})

	t.Run("delete for tenant cascades", func(t *testing.T) {
		require.NoError(t, store.DeleteForTenant(ctx, tenantB))

		_, err := store.Resolve(ctx, "sub_456")
		assert.ErrorIs(t, err, crossref.ErrNotFound)
		_, err = store.Resolve(ctx, "sub_789")
		assert.ErrorIs(t, err, crossref.ErrNotFound)
	})
}
