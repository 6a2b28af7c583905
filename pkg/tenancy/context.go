package tenancy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// binding pairs the active tenant with the store handle all data access is
// routed to. A nil tenant with a non-nil store means "central".
type binding struct {
	tenant *Tenant
	store  Querier
}

// Context owns the single mutable "active store" slot for one request.
// It is strictly request-scoped: the middleware creates one per request and
// threads it through context.Context, never a process-wide global. Nested
// entry is supported through an internal stack so central-store work can run
// while a tenant context is active and the previous context resumes after.
type Context struct {
	mu       sync.Mutex
	central  Querier
	resolver StoreResolver
	active   binding
	stack    []binding
}

// NewContext creates a request-scoped tenancy context. The central store is
// active until Enter is called.
func NewContext(central Querier, resolver StoreResolver) *Context {
	return &Context{
		central:  central,
		resolver: resolver,
		active:   binding{store: central},
	}
}

// Enter switches the active store to the tenant's isolated database,
// pushing the previous state so Exit can restore it.
// Returns ErrStoreUnresolvable if the tenant's store reference cannot be
// resolved; that failure is fatal for the request, not user-recoverable.
func (c *Context) Enter(ctx context.Context, tenant *Tenant) error {
	if tenant == nil {
		return ErrTenantNotFound
	}

	store, err := c.resolver.Resolve(ctx, tenant)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stack = append(c.stack, c.active)
	c.active = binding{tenant: tenant, store: store}
	return nil
}

// Exit restores whatever was active before the matching Enter.
// Safe to call without a matching Enter; it never fails.
func (c *Context) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.stack) == 0 {
		return
	}

	c.active = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// RunOnCentral runs fn against the central store without permanently leaving
// tenant scope: the previous binding is pushed, fn runs with the central store
// active, and the previous binding is restored even if fn fails.
func (c *Context) RunOnCentral(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	c.stack = append(c.stack, c.active)
	c.active = binding{store: c.central}
	c.mu.Unlock()

	defer c.Exit()
	return fn(ctx)
}

// Current returns the active tenant, or nil when the central store is active.
func (c *Context) Current() *Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active.tenant
}

// Store returns the handle all data access should be routed to right now:
// the active tenant's store, or the central store when no tenant is active.
func (c *Context) Store() Querier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active.store
}

// Central returns the central store handle regardless of the active binding.
// Used by components that must read central tables mid-request, such as the
// access guard and the cross-store lookup.
func (c *Context) Central() Querier {
	return c.central
}

// Depth reports how many Enter/RunOnCentral frames are currently open.
func (c *Context) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext attaches the tenancy context to the request context.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the tenancy context.
// Returns nil, false if none is attached.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	return tc, ok
}

// CurrentTenant returns the active tenant for the request, if any.
func CurrentTenant(ctx context.Context) (*Tenant, bool) {
	tc, ok := FromContext(ctx)
	if !ok || tc == nil {
		return nil, false
	}
	tenant := tc.Current()
	return tenant, tenant != nil
}

// Store returns the active store for the request.
// Returns ErrNoContext when no tenancy context is attached.
func Store(ctx context.Context) (Querier, error) {
	tc, ok := FromContext(ctx)
	if !ok || tc == nil {
		return nil, ErrNoContext
	}
	return tc.Store(), nil
}

// LoggerExtractor returns a ContextExtractor for the logger that enriches
// log records with the active tenant ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if tenant, ok := CurrentTenant(ctx); ok {
			return slog.String("tenant_id", tenant.ID.String()), true
		}
		return slog.Attr{}, false
	}
}

// IDFromContext retrieves just the active tenant ID.
// Returns zero UUID and false when no tenant is active.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenant, ok := CurrentTenant(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return tenant.ID, true
}
