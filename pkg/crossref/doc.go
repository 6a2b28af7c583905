// Package crossref maintains the central index that lets asynchronous
// external callbacks find their owning tenant.
//
// Webhook-style callbacks arrive carrying only an external identifier and no
// tenant context. Handlers resolve the identifier against this index first,
// obtain the tenant ID, and only then enter the tenant's store to process
// the callback. Entries are written by the tenant-scoped operation that
// hands the identifier out, and removed when the owning tenant is deleted.
package crossref
