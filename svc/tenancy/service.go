package tenancy

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/tenantcore/pkg/cookie"
	"github.com/dmitrymomot/tenantcore/pkg/crossref"
	"github.com/dmitrymomot/tenantcore/pkg/identity"
	"github.com/dmitrymomot/tenantcore/pkg/session"
	"github.com/dmitrymomot/tenantcore/pkg/structure"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// Config tunes the wired tenancy pipeline.
type Config struct {
	RouteParam          string        `env:"TENANT_ROUTE_PARAM" envDefault:"tenant"`
	CacheTTL            time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
	RequireActive       bool          `env:"TENANT_REQUIRE_ACTIVE" envDefault:"true"`
	StructureQueryParam string        `env:"STRUCTURE_QUERY_PARAM" envDefault:"structure_id"`
	SecureCookies       bool          `env:"SECURE_COOKIES" envDefault:"false"`
}

// Service wires tenant resolution, access control, identity substitution,
// and structure scoping into a single middleware chain plus the HTTP
// surface that accompanies them.
type Service struct {
	cfg Config
	log *slog.Logger

	sessions     *session.Manager
	cookies      *cookie.Manager
	provider     tenantpkg.Provider
	central      tenantpkg.Querier
	stores       tenantpkg.StoreResolver
	associations identity.AssociationStore
	sync         *identity.Synchronizer
	structures   structure.Store
	refs         crossref.Store
	provisioning ProvisioningStore
}

// Deps carries the service's collaborators.
type Deps struct {
	Sessions     *session.Manager
	Cookies      *cookie.Manager
	Provider     tenantpkg.Provider
	Central      tenantpkg.Querier
	Stores       tenantpkg.StoreResolver
	Associations identity.AssociationStore
	Synchronizer *identity.Synchronizer
	Structures   structure.Store
	Refs         crossref.Store
	Provisioning ProvisioningStore
	Logger       *slog.Logger
}

// New creates the wired tenancy service.
func New(cfg Config, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		log:          log,
		sessions:     deps.Sessions,
		cookies:      deps.Cookies,
		provider:     deps.Provider,
		central:      deps.Central,
		stores:       deps.Stores,
		associations: deps.Associations,
		sync:         deps.Synchronizer,
		structures:   deps.Structures,
		refs:         deps.Refs,
		provisioning: deps.Provisioning,
	}
}

// Resolver builds the tenant resolution chain: route parameter first, then
// the session loaded by middleware, then the raw session fallback that
// decrypts the cookie and reads the payload straight from the backend.
func (s *Service) Resolver() tenantpkg.Resolver {
	route := tenantpkg.NewRouteResolver(s.cfg.RouteParam)

	sess := tenantpkg.NewSessionResolver(func(r *http.Request) (tenantpkg.SessionData, error) {
		if loaded, ok := session.FromContext(r.Context()); ok {
			return loaded, nil
		}
		loaded, err := s.sessions.Get(r.Context(), r)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	})

	raw := &tenantpkg.RawSessionResolver{
		GetToken: s.sessions.Transport().GetToken,
		FetchSession: func(ctx context.Context, token string) (tenantpkg.SessionData, error) {
			loaded, err := s.sessions.Store().Get(ctx, token)
			if err != nil {
				return nil, err
			}
			return loaded, nil
		},
	}

	return tenantpkg.NewCompositeResolver(route, sess, raw.Resolve)
}

// Guard authorizes the caller against the central association table before
// any tenant store is touched.
func (s *Service) Guard() *tenantpkg.AccessGuard {
	return tenantpkg.NewAccessGuard(s.associations, identity.CallerFromContext)
}

// Middleware assembles the full request pipeline: resolve, authorize, enter
// the tenant store, substitute the principal with its mirror row, then
// resolve the structure scope. Exit is deferred on every path.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return tenantpkg.Middleware(
		s.Resolver(),
		s.provider,
		s.central,
		s.stores,
		tenantpkg.WithCache(tenantpkg.NewMemoryCache()),
		tenantpkg.WithCacheTTL(s.cfg.CacheTTL),
		tenantpkg.WithRequireActive(s.cfg.RequireActive),
		tenantpkg.WithAccessGuard(s.Guard()),
		tenantpkg.WithEnterHooks(s.sync.EnterHook(), s.StructureScopeHook()),
		tenantpkg.WithLogger(s.log),
	)
}
