package tenancy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// mapSession is a minimal SessionData backed by a map.
type mapSession map[string]string

func (m mapSession) GetString(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func requestWithRouteParam(param, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestNewRouteResolver(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	resolver := tenancy.NewRouteResolver("tenant")

	got, err := resolver(requestWithRouteParam("tenant", id))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = resolver(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, got, "no route param resolves to no tenant")
}

func TestNewSessionResolver(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()

	t.Run("reads tenant key", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewSessionResolver(func(r *http.Request) (tenancy.SessionData, error) {
			return mapSession{tenancy.SessionKeyTenant: id}, nil
		})
		got, err := resolver(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("broken session is soft", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewSessionResolver(func(r *http.Request) (tenancy.SessionData, error) {
			return nil, errors.New("session backend down")
		})
		got, err := resolver(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing key is soft", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewSessionResolver(func(r *http.Request) (tenancy.SessionData, error) {
			return mapSession{}, nil
		})
		got, err := resolver(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRawSessionResolver(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()

	t.Run("decrypts token and reads backend", func(t *testing.T) {
		t.Parallel()
		resolver := &tenancy.RawSessionResolver{
			GetToken: func(r *http.Request) (string, error) { return "tok", nil },
			FetchSession: func(ctx context.Context, token string) (tenancy.SessionData, error) {
				assert.Equal(t, "tok", token)
				return mapSession{tenancy.SessionKeyTenant: id}, nil
			},
		}
		got, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("undecryptable cookie is soft", func(t *testing.T) {
		t.Parallel()
		resolver := &tenancy.RawSessionResolver{
			GetToken: func(r *http.Request) (string, error) { return "", errors.New("bad cookie") },
			FetchSession: func(ctx context.Context, token string) (tenancy.SessionData, error) {
				t.Fatal("must not reach the backend")
				return nil, nil
			},
		}
		got, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("backend unavailability is soft", func(t *testing.T) {
		t.Parallel()
		resolver := &tenancy.RawSessionResolver{
			GetToken: func(r *http.Request) (string, error) { return "tok", nil },
			FetchSession: func(ctx context.Context, token string) (tenancy.SessionData, error) {
				return nil, errors.New("redis down")
			},
		}
		got, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unconfigured is soft", func(t *testing.T) {
		t.Parallel()
		resolver := &tenancy.RawSessionResolver{}
		got, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestNewCompositeResolver(t *testing.T) {
	t.Parallel()

	fixed := func(id string, err error) tenancy.Resolver {
		return func(r *http.Request) (string, error) { return id, err }
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("first non-empty wins", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewCompositeResolver(fixed("", nil), fixed("a", nil), fixed("b", nil))
		got, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "a", got)
	})

	t.Run("later resolver recovers from earlier error", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewCompositeResolver(fixed("", errors.New("boom")), fixed("a", nil))
		got, err := resolver(req)
		require.NoError(t, err)
		assert.Equal(t, "a", got)
	})

	t.Run("all empty with errors reports them", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		resolver := tenancy.NewCompositeResolver(fixed("", boom), fixed("", nil))
		got, err := resolver(req)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, got)
	})

	t.Run("all empty without errors is tenantless", func(t *testing.T) {
		t.Parallel()
		resolver := tenancy.NewCompositeResolver(fixed("", nil), fixed("", nil))
		got, err := resolver(req)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
