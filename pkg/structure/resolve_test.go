package structure_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/structure"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first := uuid.NewString()

	fallbackTo := func(id string, err error) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return id, err }
	}

	t.Run("session wins over cookie and fallback", func(t *testing.T) {
		t.Parallel()
		got, source, err := structure.Resolve(ctx, "sess-id", "cookie-id", fallbackTo(first, nil))
		require.NoError(t, err)
		assert.Equal(t, "sess-id", got)
		assert.Equal(t, structure.SourceSession, source)
	})

	t.Run("cookie wins over fallback", func(t *testing.T) {
		t.Parallel()
		got, source, err := structure.Resolve(ctx, "", "cookie-id", fallbackTo(first, nil))
		require.NoError(t, err)
		assert.Equal(t, "cookie-id", got)
		assert.Equal(t, structure.SourceCookie, source)
	})

	t.Run("fallback when both empty", func(t *testing.T) {
		t.Parallel()
		got, source, err := structure.Resolve(ctx, "", "", fallbackTo(first, nil))
		require.NoError(t, err)
		assert.Equal(t, first, got)
		assert.Equal(t, structure.SourceFallback, source)
	})

	t.Run("fallback error propagates", func(t *testing.T) {
		t.Parallel()
		_, source, err := structure.Resolve(ctx, "", "", fallbackTo("", structure.ErrNoStructures))
		assert.ErrorIs(t, err, structure.ErrNoStructures)
		assert.Equal(t, structure.SourceNone, source)
	})

	t.Run("nil fallback means no structures", func(t *testing.T) {
		t.Parallel()
		_, _, err := structure.Resolve(ctx, "", "", nil)
		assert.ErrorIs(t, err, structure.ErrNoStructures)
	})
}

func TestScopeContext(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := structure.WithScope(context.Background(), structure.Scope{StructureID: id})

	got, err := structure.ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = structure.ID(context.Background())
	assert.ErrorIs(t, err, structure.ErrNoScope)

	assert.False(t, structure.Bypassed(ctx))
	assert.True(t, structure.Bypassed(structure.WithoutScope(ctx)))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	scoped := uuid.New()
	explicit := uuid.New()
	ctx := structure.WithScope(context.Background(), structure.Scope{StructureID: scoped})

	t.Run("explicit wins", func(t *testing.T) {
		t.Parallel()
		got, err := structure.Default(ctx, explicit)
		require.NoError(t, err)
		assert.Equal(t, explicit, got)
	})

	t.Run("zero falls back to scope", func(t *testing.T) {
		t.Parallel()
		got, err := structure.Default(ctx, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, scoped, got)
	})

	t.Run("zero without scope fails", func(t *testing.T) {
		t.Parallel()
		_, err := structure.Default(context.Background(), uuid.Nil)
		assert.ErrorIs(t, err, structure.ErrNoScope)
	})
}
