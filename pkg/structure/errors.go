package structure

import "errors"

var (
	// ErrStructureNotFound is returned when a structure cannot be found.
	ErrStructureNotFound = errors.New("structure not found")

	// ErrNoStructures is returned when the tenant has no structures at all,
	// so no default scope can be chosen.
	ErrNoStructures = errors.New("tenant has no structures")

	// ErrNoScope is returned when an operation requires a resolved structure
	// scope and none is attached to the context.
	ErrNoScope = errors.New("no structure scope in context")
)
