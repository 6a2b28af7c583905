// Package tenancy implements tenant context resolution and store switching
// for multi-tenant applications where each tenant owns an isolated database.
//
// The package is built around four core concepts:
//
//  1. Resolvers - extract the tenant identifier from HTTP requests
//     (route parameter, session, raw session-store fallback)
//  2. AccessGuard - authorizes the caller against the resolved tenant
//     before any store switch, using the central association table
//  3. Context - the request-scoped active-store slot with push/pop
//     semantics, so central-store work can run mid-tenant-request
//  4. Middleware - orchestrates resolve -> authorize -> enter -> exit
//
// # The active-store slot
//
// A Context is created per request and threaded through context.Context.
// It is never shared between requests: a multi-threaded server interleaves
// requests for different tenants concurrently, and leaking a store binding
// across requests is the bug class this package exists to prevent.
//
//	tc, _ := tenancy.FromContext(ctx)
//	err := tc.Enter(ctx, tenant)   // switch to the tenant's database
//	defer tc.Exit()                // restore the previous binding, always
//
//	_ = tc.RunOnCentral(ctx, func(ctx context.Context) error {
//	    // authoritative central read/write while tenant scope is paused
//	    return nil
//	})
//	// tc.Current() is the tenant again here
//
// # Resolution
//
// Resolvers are read-only and tolerate partial information. Failures in the
// session and raw-session paths resolve to "no tenant" rather than aborting
// the request; "no tenant" is a valid state handled by downstream logic.
//
// # Guard ordering
//
// The access guard always completes before Enter. The association table only
// exists in the central store; checking it after the switch would query the
// tenant's database and silently authorize everyone.
package tenancy
