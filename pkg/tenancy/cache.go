package tenancy

import (
	"context"
	"sync"
	"time"
)

// Cache is the interface for tenant record caching. The middleware consults
// it before hitting the central registry on every request.
type Cache interface {
	Get(ctx context.Context, key string) (*Tenant, bool)
	Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// memoryCache is the default TTL cache with a hard size cap.
type memoryCache struct {
	mu      sync.RWMutex
	items   map[string]cachedTenant
	maxSize int
	stop    chan struct{}
	once    sync.Once
}

type cachedTenant struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize caps the number of tenants kept in memory.
const DefaultCacheSize = 1000

// NewMemoryCache creates an in-memory tenant cache with background cleanup.
func NewMemoryCache() Cache {
	c := &memoryCache{
		items:   make(map[string]cachedTenant),
		maxSize: DefaultCacheSize,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.Delete(ctx, key)
		return nil, false
	}
	return item.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// When full, drop the entry closest to expiry rather than growing unbounded.
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		var victim string
		var soonest time.Time
		for k, item := range c.items {
			if victim == "" || item.expiresAt.Before(soonest) {
				victim, soonest = k, item.expiresAt
			}
		}
		delete(c.items, victim)
	}

	c.items[key] = cachedTenant{tenant: tenant, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *memoryCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// noopCache disables caching; every lookup goes to the registry.
type noopCache struct{}

// NewNoopCache creates a cache that never stores anything.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(ctx context.Context, key string) (*Tenant, bool)               { return nil, false }
func (noopCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {}
func (noopCache) Delete(ctx context.Context, key string)                            {}
func (noopCache) Close() error                                                      { return nil }
