package structure

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ScopeSelect filters a select over a structure-scoped entity to the resolved
// structure, unless the context explicitly bypassed the scope. Queries on
// scoped entity types should pass through here by default.
func ScopeSelect(ctx context.Context, b sq.SelectBuilder) sq.SelectBuilder {
	if Bypassed(ctx) {
		return b
	}
	scope, ok := FromContext(ctx)
	if !ok {
		return b
	}
	return b.Where(sq.Eq{"structure_id": scope.StructureID})
}

// ScopeUpdate constrains an update to rows of the resolved structure.
func ScopeUpdate(ctx context.Context, b sq.UpdateBuilder) sq.UpdateBuilder {
	if Bypassed(ctx) {
		return b
	}
	scope, ok := FromContext(ctx)
	if !ok {
		return b
	}
	return b.Where(sq.Eq{"structure_id": scope.StructureID})
}

// ScopeDelete constrains a delete to rows of the resolved structure.
func ScopeDelete(ctx context.Context, b sq.DeleteBuilder) sq.DeleteBuilder {
	if Bypassed(ctx) {
		return b
	}
	scope, ok := FromContext(ctx)
	if !ok {
		return b
	}
	return b.Where(sq.Eq{"structure_id": scope.StructureID})
}

// InsertValue resolves the structure_id to store on a new scoped row.
// An explicit non-zero value from the caller is stored as-is and never
// silently replaced; the zero UUID receives the scope default.
func InsertValue(ctx context.Context, explicit uuid.UUID) (uuid.UUID, error) {
	return Default(ctx, explicit)
}
