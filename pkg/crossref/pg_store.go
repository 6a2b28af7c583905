package crossref

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore persists the index in the central "cross_refs" table.
type PGStore struct {
	db tenancy.Querier
}

// NewPGStore creates a cross-reference store on the central database.
func NewPGStore(db tenancy.Querier) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Put(ctx context.Context, externalID string, tenantID uuid.UUID) error {
	query, args, err := psql.
		Insert("cross_refs").
		Columns("external_id", "tenant_id").
		Values(externalID, tenantID).
		Suffix("ON CONFLICT (external_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}

func (s *PGStore) Resolve(ctx context.Context, externalID string) (uuid.UUID, error) {
	query, args, err := psql.
		Select("tenant_id").
		From("cross_refs").
		Where(sq.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return uuid.UUID{}, err
	}

	var tenantID uuid.UUID
	if err := s.db.QueryRow(ctx, query, args...).Scan(&tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.UUID{}, ErrNotFound
		}
		return uuid.UUID{}, err
	}

	return tenantID, nil
}

func (s *PGStore) Delete(ctx context.Context, externalID string) error {
	query, args, err := psql.
		Delete("cross_refs").
		Where(sq.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}

func (s *PGStore) DeleteForTenant(ctx context.Context, tenantID uuid.UUID) error {
	query, args, err := psql.
		Delete("cross_refs").
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}
