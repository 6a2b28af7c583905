package crossref

import "errors"

// ErrNotFound is returned when no entry exists for an external ID.
var ErrNotFound = errors.New("cross-store lookup entry not found")
