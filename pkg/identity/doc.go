// Package identity keeps one logical person consistent across the central
// store and N independent tenant stores.
//
// A person is identified everywhere by a stable global ID; local
// auto-increment IDs differ per store. The central record owns the synced
// attribute set (name, email, password hash). Each tenant store holds a
// mirror row with the same global ID that locally owns tenant-specific
// authorization state; sync never touches roles.
//
// # Outgoing sync
//
// When the central synced attributes change, Synchronizer.UpdateCentral
// commits the central write and then fans the change out to every associated
// tenant mirror. Each mirror write is an independent per-store operation:
// a failed tenant leaves the central write committed and is reported in the
// SyncReport for retry (see RetryFailed). Mirrors are eventually consistent,
// never atomically coupled to the central store.
//
// # Request-time substitution
//
// After a tenant context switch, Synchronizer.Substitute swaps the principal
// in context for the tenant mirror row, so role checks downstream see
// tenant-scoped data. Super-admins keep presenting the central identity. A
// missing mirror for an associated identity is corrupted sync state and
// fails hard with ErrMirrorNotFound.
package identity
