// Package structure applies a second partitioning dimension inside the
// active tenant store: a location ("structure") that scoped business
// entities are filtered by transparently.
//
// The current structure is resolved once per request through the chain
// session -> cookie -> first structure row, by the pure Resolve function.
// The chosen value is cached forward: a cookie hit is written back into the
// session, and a fallback hit is written into both the session and a
// long-lived cookie, so later requests short-circuit at the session step.
//
// Query application happens through the squirrel helpers: ScopeSelect,
// ScopeUpdate and ScopeDelete inject the structure_id predicate, and
// InsertValue picks the stored structure_id for creates, where an explicit
// caller-supplied value always wins over the scope default. Bypassing the
// filter is an explicit opt-in via WithoutScope, never the default.
package structure
