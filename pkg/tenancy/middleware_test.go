package tenancy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// fakeProvider serves tenants from a map.
type fakeProvider struct {
	tenants map[uuid.UUID]*tenancy.Tenant
}

func (p *fakeProvider) GetByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	tenant, ok := p.tenants[id]
	if !ok {
		return nil, tenancy.ErrTenantNotFound
	}
	return tenant, nil
}

type middlewareEnv struct {
	tenant   *tenancy.Tenant
	central  *fakeStore
	resolver *fakeResolver
	provider *fakeProvider
}

func newMiddlewareEnv() *middlewareEnv {
	tenant := newTestTenant("acme")
	central := &fakeStore{name: "central"}
	resolver := &fakeResolver{stores: map[uuid.UUID]*fakeStore{
		tenant.ID: {name: tenant.Slug},
	}}
	provider := &fakeProvider{tenants: map[uuid.UUID]*tenancy.Tenant{tenant.ID: tenant}}
	return &middlewareEnv{tenant: tenant, central: central, resolver: resolver, provider: provider}
}

func fixedResolver(id string) tenancy.Resolver {
	return func(r *http.Request) (string, error) { return id, nil }
}

func TestMiddleware_ResolvedTenant(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	var seen *tenancy.Context

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenancy.FromContext(r.Context())
		require.True(t, ok)
		seen = tc

		current, ok := tenancy.CurrentTenant(r.Context())
		require.True(t, ok)
		assert.Equal(t, env.tenant.ID, current.ID)
		assert.Equal(t, "acme", tc.Store().(*fakeStore).name)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Nil(t, seen.Current(), "store binding restored after the request")
	assert.Equal(t, 0, seen.Depth())
}

func TestMiddleware_Tenantless(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()

	handler := tenancy.Middleware(
		fixedResolver(""),
		env.provider, env.central, env.resolver,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenancy.FromContext(r.Context())
		require.True(t, ok, "context attached even without a tenant")
		assert.Same(t, env.central, tc.Store())

		_, ok = tenancy.CurrentTenant(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_ErrorMapping(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()

	cases := []struct {
		name       string
		identifier string
		wantStatus int
	}{
		{"invalid identifier", "not-a-uuid", http.StatusBadRequest},
		{"unknown tenant", uuid.NewString(), http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			handler := tenancy.Middleware(
				fixedResolver(tc.identifier),
				env.provider, env.central, env.resolver,
				tenancy.WithCache(tenancy.NewNoopCache()),
			)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestMiddleware_InactiveTenant(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	env.tenant.Active = false

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_GuardDeniesBeforeStoreSwitch(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	outsider := uuid.New()

	guard := tenancy.NewAccessGuard(
		&fakeAssociations{edges: map[[2]uuid.UUID]bool{}},
		staticCaller(tenancy.Caller{GlobalID: outsider}, true),
	)

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
		tenancy.WithAccessGuard(guard),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int64(0), env.resolver.calls.Load(),
		"denied request must never touch the tenant store")
}

func TestMiddleware_SuperAdminWithoutAssociation(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	guard := tenancy.NewAccessGuard(
		&fakeAssociations{edges: map[[2]uuid.UUID]bool{}},
		staticCaller(tenancy.Caller{GlobalID: uuid.New(), SuperAdmin: true}, true),
	)

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
		tenancy.WithAccessGuard(guard),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_ExitOnPanic(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	var seen *tenancy.Context

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = tenancy.FromContext(r.Context())
		panic("handler exploded")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	require.NotNil(t, seen)
	assert.Nil(t, seen.Current(), "binding restored even when the handler panics")
	assert.Equal(t, 0, seen.Depth())
}

func TestMiddleware_EnterHooks(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()
	type hookKey struct{}

	hook := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (context.Context, error) {
		_, ok := tenancy.CurrentTenant(ctx)
		assert.True(t, ok, "hooks run inside the entered tenant scope")
		return context.WithValue(ctx, hookKey{}, "set-by-hook"), nil
	}

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithCache(tenancy.NewNoopCache()),
		tenancy.WithEnterHooks(hook),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "set-by-hook", r.Context().Value(hookKey{}))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_SkipPaths(t *testing.T) {
	t.Parallel()

	env := newMiddlewareEnv()

	handler := tenancy.Middleware(
		fixedResolver(env.tenant.ID.String()),
		env.provider, env.central, env.resolver,
		tenancy.WithSkipPaths("/static/"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := tenancy.FromContext(r.Context())
		assert.False(t, ok, "skipped paths get no tenancy context")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	handler := tenancy.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no tenant", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("with tenant", func(t *testing.T) {
		t.Parallel()
		tenant := newTestTenant("acme")
		tc, _, _ := newTestContext(tenant)
		require.NoError(t, tc.Enter(context.Background(), tenant))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(tenancy.WithContext(req.Context(), tc))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
