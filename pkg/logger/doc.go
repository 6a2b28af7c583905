// Package logger wraps log/slog with functional options, common attribute
// constructors, and transparent injection of context values into every
// record.
//
// New builds a *slog.Logger whose handler is wrapped with
// LogHandlerDecorator. The decorator runs registered ContextExtractor
// callbacks on each Handle call, so request-scoped values like the active
// tenant or request id are attached without plumbing attributes through call
// sites:
//
//	log := logger.New(
//	    logger.WithProduction("api"),
//	    logger.WithContextExtractors(tenancy.LoggerExtractor(), identity.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers such as TenantID, GlobalID, and Error keep key naming
// consistent across packages.
package logger
