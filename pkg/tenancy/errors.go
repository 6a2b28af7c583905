package tenancy

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found in the central registry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when a tenant identifier has an invalid format.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrInactiveTenant is returned when trying to enter an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrAccessDenied is returned when the authenticated identity holds no
	// association with the resolved tenant.
	ErrAccessDenied = errors.New("access to tenant denied")

	// ErrStoreUnresolvable is returned by Enter when the tenant's database
	// reference cannot be resolved. This indicates a provisioning or resolver
	// bug, not user error.
	ErrStoreUnresolvable = errors.New("tenant store unresolvable")

	// ErrNoContext is returned when no tenancy context is carried by the
	// request context.
	ErrNoContext = errors.New("no tenancy context")
)
