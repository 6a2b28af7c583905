// Package session provides server-side sessions with pluggable storage
// (memory, Redis) and an encrypted-cookie token transport.
//
// The tenant and structure context keys are ordinary session values, so the
// tenancy resolvers can read them through the normal middleware path or, for
// requests served before the middleware runs, straight from the backing
// store via the raw fallback.
package session
