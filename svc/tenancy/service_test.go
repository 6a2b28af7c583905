package tenancy_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/core"
	"github.com/dmitrymomot/tenantcore/pkg/cookie"
	"github.com/dmitrymomot/tenantcore/pkg/crossref"
	"github.com/dmitrymomot/tenantcore/pkg/identity"
	"github.com/dmitrymomot/tenantcore/pkg/session"
	"github.com/dmitrymomot/tenantcore/pkg/structure"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
	"github.com/dmitrymomot/tenantcore/svc/tenancy"
)

type nopStore struct{}

func (nopStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (nopStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (nopStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

type fakeProvider struct {
	tenants map[uuid.UUID]*tenantpkg.Tenant
}

func (p *fakeProvider) GetByID(ctx context.Context, id uuid.UUID) (*tenantpkg.Tenant, error) {
	tenant, ok := p.tenants[id]
	if !ok {
		return nil, tenantpkg.ErrTenantNotFound
	}
	return tenant, nil
}

type headerTransport struct{}

func (headerTransport) GetToken(r *http.Request) (string, error) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		return "", session.ErrSessionNotFound
	}
	return token, nil
}

func (headerTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set("X-Session-Token", token)
	return nil
}

func (headerTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del("X-Session-Token")
	return nil
}

type serviceEnv struct {
	svc          *tenancy.Service
	tenant       *tenantpkg.Tenant
	structures   *structure.MemoryStore
	refs         *crossref.MemoryStore
	provisioning *tenancy.MemoryProvisioningStore
	hq           uuid.UUID
	warehouse    uuid.UUID
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	tenant := &tenantpkg.Tenant{
		ID:       uuid.New(),
		Slug:     "acme",
		Active:   true,
		StoreDSN: "postgres://acme",
	}

	provider := &fakeProvider{tenants: map[uuid.UUID]*tenantpkg.Tenant{tenant.ID: tenant}}
	stores := tenantpkg.StoreResolverFunc(func(ctx context.Context, tenant *tenantpkg.Tenant) (tenantpkg.Querier, error) {
		return nopStore{}, nil
	})

	sessionStore := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = sessionStore.Close() })
	sessions := session.New(sessionStore, headerTransport{}, session.Config{CookieName: "sid", TTL: time.Hour})

	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	associations := identity.NewMemoryAssociationStore()
	sync := identity.NewSynchronizer(
		identity.NewMemoryCentralStore(),
		associations,
		func(ctx context.Context, tenantID uuid.UUID) (identity.MirrorStore, error) {
			return identity.NewMemoryMirrorStore(), nil
		},
		nil,
	)

	env := &serviceEnv{
		tenant:       tenant,
		structures:   structure.NewMemoryStore(),
		refs:         crossref.NewMemoryStore(),
		provisioning: tenancy.NewMemoryProvisioningStore(),
	}

	// Seed two structures in the tenant's isolated store.
	seedCtx := enteredTenantContext(t, stores, tenant)
	hq := &structure.Structure{Name: "HQ", City: "Berlin"}
	warehouse := &structure.Structure{Name: "Warehouse", City: "Hamburg"}
	require.NoError(t, env.structures.Create(seedCtx, hq))
	require.NoError(t, env.structures.Create(seedCtx, warehouse))
	env.hq = hq.ID
	env.warehouse = warehouse.ID

	env.svc = tenancy.New(tenancy.Config{
		RouteParam:          "tenant",
		CacheTTL:            time.Minute,
		RequireActive:       true,
		StructureQueryParam: "structure_id",
	}, tenancy.Deps{
		Sessions:     sessions,
		Cookies:      cookies,
		Provider:     provider,
		Central:      nopStore{},
		Stores:       stores,
		Associations: associations,
		Synchronizer: sync,
		Structures:   env.structures,
		Refs:         env.refs,
		Provisioning: env.provisioning,
	})

	return env
}

func enteredTenantContext(t *testing.T, stores tenantpkg.StoreResolver, tenant *tenantpkg.Tenant) context.Context {
	t.Helper()

	tc := tenantpkg.NewContext(nopStore{}, stores)
	ctx := tenantpkg.WithContext(context.Background(), tc)
	require.NoError(t, tc.Enter(ctx, tenant))
	return ctx
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestProvisioningStatusEndpoint(t *testing.T) {
	t.Parallel()

	env := newServiceEnv(t)
	router := env.svc.Routes(nil, nil)

	require.NoError(t, env.provisioning.Set(context.Background(), env.tenant.ID, tenancy.StatusReady, ""))

	t.Run("ready tenant", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/"+env.tenant.ID.String()+"/status", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			TenantID string `json:"tenant_id"`
			Status   string `json:"status"`
			IsReady  bool   `json:"is_ready"`
		}
		decodeData(t, w, &got)
		assert.Equal(t, env.tenant.ID.String(), got.TenantID)
		assert.Equal(t, "ready", got.Status)
		assert.True(t, got.IsReady)
	})

	t.Run("failed tenant reports error", func(t *testing.T) {
		failing := uuid.New()
		require.NoError(t, env.provisioning.Set(context.Background(), failing, tenancy.StatusFailed, "migration error"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/"+failing.String()+"/status", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			IsReady bool   `json:"is_ready"`
			Error   string `json:"error"`
		}
		decodeData(t, w, &got)
		assert.False(t, got.IsReady)
		assert.Equal(t, "migration error", got.Error)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.NewString()+"/status", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed tenant id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/not-a-uuid/status", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	env := newServiceEnv(t)
	require.NoError(t, env.refs.Put(context.Background(), "sub_123", env.tenant.ID))

	var seenTenant uuid.UUID
	var seenPayload []byte
	router := env.svc.Routes(func(ctx context.Context, externalID string, payload []byte) error {
		if tenant, ok := tenantpkg.CurrentTenant(ctx); ok {
			seenTenant = tenant.ID
		}
		seenPayload = payload
		return nil
	}, nil)

	t.Run("resolves tenant and runs in its scope", func(t *testing.T) {
		body := []byte(`{"external_id":"sub_123","event":"invoice.paid"}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(body)))

		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, env.tenant.ID, seenTenant, "processor runs inside the resolved tenant scope")
		assert.Equal(t, body, seenPayload, "processor receives the raw payload")
	})

	t.Run("unknown external id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/billing",
			bytes.NewReader([]byte(`{"external_id":"sub_unknown"}`))))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("payload without external id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/billing",
			bytes.NewReader([]byte(`{"event":"x"}`))))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/billing",
			bytes.NewReader([]byte(`not json`))))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStructureEndpoints(t *testing.T) {
	t.Parallel()

	env := newServiceEnv(t)
	router := env.svc.Routes(nil, nil)
	base := "/tenants/" + env.tenant.ID.String()

	t.Run("list defaults to first structure", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+"/structures", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Active bool   `json:"active"`
		}
		decodeData(t, w, &got)
		require.Len(t, got, 2)
		assert.Equal(t, "HQ", got[0].Name)
		assert.True(t, got[0].Active, "first structure is the default scope")
		assert.False(t, got[1].Active)

		// The fallback choice is persisted to the long-lived cookie.
		cookies := w.Result().Cookies()
		var found bool
		for _, c := range cookies {
			if c.Name == structure.CookieNameStructure {
				found = true
				assert.Equal(t, env.hq.String(), c.Value)
			}
		}
		assert.True(t, found, "structure cookie is written")
	})

	t.Run("explicit query parameter wins", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			base+"/structures?structure_id="+env.warehouse.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got []struct {
			ID     string `json:"id"`
			Active bool   `json:"active"`
		}
		decodeData(t, w, &got)
		require.Len(t, got, 2)
		assert.False(t, got[0].Active)
		assert.True(t, got[1].Active)
	})

	t.Run("stale cookie falls back to first structure", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, base+"/structures", nil)
		r.AddCookie(&http.Cookie{Name: structure.CookieNameStructure, Value: uuid.NewString()})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var got []struct {
			Active bool `json:"active"`
		}
		decodeData(t, w, &got)
		require.Len(t, got, 2)
		assert.True(t, got[0].Active)
	})

	t.Run("select structure persists the choice", func(t *testing.T) {
		body := []byte(`{"structure_id":"` + env.warehouse.String() + `"}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, base+"/structures/current", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)

		var found bool
		for _, c := range w.Result().Cookies() {
			if c.Name == structure.CookieNameStructure {
				found = true
				assert.Equal(t, env.warehouse.String(), c.Value)
			}
		}
		assert.True(t, found)
	})

	t.Run("select unknown structure", func(t *testing.T) {
		body := []byte(`{"structure_id":"` + uuid.NewString() + `"}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, base+"/structures/current", bytes.NewReader(body)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown tenant is a 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.NewString()+"/structures", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRoutesMountAppUnderTenantScope(t *testing.T) {
	t.Parallel()

	env := newServiceEnv(t)

	var scopeID uuid.UUID
	var tenantID uuid.UUID
	router := env.svc.Routes(nil, func(r chi.Router) {
		r.Get("/dashboard", func(w http.ResponseWriter, req *http.Request) {
			if tenant, ok := tenantpkg.CurrentTenant(req.Context()); ok {
				tenantID = tenant.ID
			}
			scopeID, _ = structure.ID(req.Context())
			core.JSON(w, http.StatusOK, nil)
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/tenants/"+env.tenant.ID.String()+"/dashboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.tenant.ID, tenantID, "app routes run inside the tenant scope")
	assert.Equal(t, env.hq, scopeID, "structure scope is attached before app handlers run")
}
