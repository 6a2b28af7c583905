// Package tenancy wires the multi-tenant request pipeline: tenant
// resolution from route, session, or raw session payload; central access
// checks before any store switch; per-request store binding with panic-safe
// restoration; principal substitution against the tenant's identity mirror;
// and structure scope resolution with forward persistence.
//
// It also serves the HTTP surface that accompanies the pipeline: the
// provisioning status endpoint polled while a tenant store is created, the
// webhook entrypoint that maps external identifiers to tenants through the
// central cross-reference index, and structure listing/selection.
package tenancy
