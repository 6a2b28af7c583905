package tenancy

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// psql builds queries with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGProvider loads tenant records from the central "tenants" table.
type PGProvider struct {
	db Querier
}

// NewPGProvider creates a provider backed by the central store.
func NewPGProvider(db Querier) *PGProvider {
	return &PGProvider{db: db}
}

// GetByID retrieves a tenant by its identifier.
func (p *PGProvider) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query, args, err := psql.
		Select("id", "slug", "active", "store_dsn", "created_at").
		From("tenants").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t Tenant
	row := p.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&t.ID, &t.Slug, &t.Active, &t.StoreDSN, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	return &t, nil
}

// GetBySlug retrieves a tenant by its slug.
func (p *PGProvider) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	query, args, err := psql.
		Select("id", "slug", "active", "store_dsn", "created_at").
		From("tenants").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t Tenant
	row := p.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&t.ID, &t.Slug, &t.Active, &t.StoreDSN, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	return &t, nil
}
