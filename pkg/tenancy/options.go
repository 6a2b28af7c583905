package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ErrorHandler handles failures raised by the tenancy middleware.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// EnterHook runs inside an entered tenant scope, before the business handler.
// It may derive a new request context (e.g. substituting the authenticated
// principal with its tenant mirror). A hook error aborts the request.
type EnterHook func(ctx context.Context, w http.ResponseWriter, r *http.Request) (context.Context, error)

// config holds middleware configuration.
type config struct {
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	guard         *AccessGuard
	enterHooks    []EnterHook
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithCache sets a custom tenant cache implementation.
func WithCache(cache Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithCacheTTL sets how long tenant records stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution entirely.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skipPaths = append(c.skipPaths, paths...) }
}

// WithRequireActive ensures only active tenants can be entered.
func WithRequireActive(require bool) Option {
	return func(c *config) { c.requireActive = require }
}

// WithAccessGuard wires the pre-switch authorization check. The guard runs
// strictly before Enter for every request that resolved a tenant.
func WithAccessGuard(guard *AccessGuard) Option {
	return func(c *config) { c.guard = guard }
}

// WithEnterHooks registers hooks to run inside the entered tenant scope.
func WithEnterHooks(hooks ...EnterHook) Option {
	return func(c *config) {
		for _, h := range hooks {
			if h != nil {
				c.enterHooks = append(c.enterHooks, h)
			}
		}
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Tenant is inactive", http.StatusForbidden)
	case errors.Is(err, ErrAccessDenied):
		http.Error(w, "Access denied", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
