// Package pg provides PostgreSQL bootstrap helpers on top of pgx/v5:
// pooled connections with startup retry, goose schema migrations, health
// checks, and error classification helpers.
//
// Connect takes an explicit DSN because the application manages many
// databases: one central registry plus one store per tenant. The same
// Config supplies pool limits for all of them, and Migrate is pointed at
// either the central or the tenant migration directory depending on which
// database is being prepared.
package pg
