package identity

import "errors"

var (
	// ErrIdentityNotFound is returned when no central identity matches.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrMirrorNotFound is returned when a tenant mirror row is missing for
	// an identity that is associated with the tenant. Sync is supposed to
	// have produced the row; its absence indicates corrupted sync state and
	// is treated as fatal, never as a create-on-demand case.
	ErrMirrorNotFound = errors.New("tenant mirror row not found")

	// ErrSyncDivergence is reported when one or more tenant mirrors failed
	// to receive an outgoing sync write. The central write stays committed;
	// divergent mirrors are eventually consistent via retry.
	ErrSyncDivergence = errors.New("tenant mirror sync divergence")

	// ErrPasswordTooLong is returned when a password exceeds the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrInvalidCredentials is returned when a password does not match its hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
