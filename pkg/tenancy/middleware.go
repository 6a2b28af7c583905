package tenancy

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Middleware builds the tenant context pipeline for one request:
// resolve -> authorize -> enter -> hooks -> handler, with the exit deferred
// so the previous store binding is restored on every path, panics included.
//
// A fresh request-scoped Context is attached even when no tenant resolves,
// so downstream code can always reach the central store.
func Middleware(resolver Resolver, provider Provider, central Querier, stores StoreResolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:         NewMemoryCache(),
		cacheTTL:      5 * time.Minute,
		errorHandler:  defaultErrorHandler,
		requireActive: true,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tc := NewContext(central, stores)
			ctx := WithContext(r.Context(), tc)
			r = r.WithContext(ctx)

			identifier, err := resolver(r)
			if err != nil {
				// Resolution failures are soft: the request proceeds tenantless.
				cfg.logger.DebugContext(ctx, "tenant resolution failed", "error", err)
			}

			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			tenantID, err := uuid.Parse(identifier)
			if err != nil {
				cfg.errorHandler(w, r, ErrInvalidIdentifier)
				return
			}

			tenant, ok := cfg.cache.Get(ctx, identifier)
			if !ok {
				tenant, err = provider.GetByID(ctx, tenantID)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				cfg.cache.Set(ctx, identifier, tenant, cfg.cacheTTL)
			}

			if cfg.requireActive && !tenant.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			// The guard reads the central association table, so it must
			// complete before the store switch below.
			if cfg.guard != nil {
				if err := cfg.guard.Authorize(ctx, tenant.ID); err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
			}

			if err := tc.Enter(ctx, tenant); err != nil {
				cfg.logger.ErrorContext(ctx, "tenant store switch failed",
					"tenant_id", tenant.ID.String(), "error", err)
				cfg.errorHandler(w, r, err)
				return
			}
			defer tc.Exit()

			for _, hook := range cfg.enterHooks {
				ctx, err = hook(ctx, w, r)
				if err != nil {
					cfg.logger.ErrorContext(ctx, "tenant enter hook failed",
						"tenant_id", tenant.ID.String(), "error", err)
					cfg.errorHandler(w, r, err)
					return
				}
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant ensures an active tenant context is present, for routes that
// cannot operate tenantless.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentTenant(r.Context()); !ok {
				errorHandler(w, r, ErrTenantNotFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
