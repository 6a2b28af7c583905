package identity

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGCentralStore persists central identities in the "central_identities" table.
type PGCentralStore struct {
	db tenancy.Querier
}

// NewPGCentralStore creates a central identity store on the central database.
func NewPGCentralStore(db tenancy.Querier) *PGCentralStore {
	return &PGCentralStore{db: db}
}

func (s *PGCentralStore) GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*CentralIdentity, error) {
	query, args, err := psql.
		Select("id", "global_id", "first_name", "last_name", "email", "password_hash", "super_admin", "created_at", "updated_at").
		From("central_identities").
		Where(sq.Eq{"global_id": globalID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ci CentralIdentity
	row := s.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&ci.ID, &ci.GlobalID, &ci.FirstName, &ci.LastName, &ci.Email,
		&ci.PasswordHash, &ci.SuperAdmin, &ci.CreatedAt, &ci.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return &ci, nil
}

func (s *PGCentralStore) UpdateSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error {
	query, args, err := psql.
		Update("central_identities").
		Set("first_name", attrs.FirstName).
		Set("last_name", attrs.LastName).
		Set("email", attrs.Email).
		Set("password_hash", attrs.PasswordHash).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"global_id": globalID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// PGMirrorStore persists tenant-local identity mirrors in a tenant database's
// "identities" table.
type PGMirrorStore struct {
	db tenancy.Querier
}

// NewPGMirrorStore creates a mirror store on one tenant's database.
func NewPGMirrorStore(db tenancy.Querier) *PGMirrorStore {
	return &PGMirrorStore{db: db}
}

func (s *PGMirrorStore) GetByGlobalID(ctx context.Context, globalID uuid.UUID) (*TenantIdentity, error) {
	query, args, err := psql.
		Select("id", "global_id", "first_name", "last_name", "email", "password_hash", "roles", "created_at", "updated_at").
		From("identities").
		Where(sq.Eq{"global_id": globalID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ti TenantIdentity
	row := s.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&ti.ID, &ti.GlobalID, &ti.FirstName, &ti.LastName, &ti.Email,
		&ti.PasswordHash, &ti.Roles, &ti.CreatedAt, &ti.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMirrorNotFound
		}
		return nil, err
	}

	return &ti, nil
}

// UpsertSynced creates or refreshes the mirror row. The roles column is
// deliberately absent from both the insert values and the update set, so
// tenant-local authorization state survives every sync.
func (s *PGMirrorStore) UpsertSynced(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) error {
	query, args, err := psql.
		Insert("identities").
		Columns("global_id", "first_name", "last_name", "email", "password_hash").
		Values(globalID, attrs.FirstName, attrs.LastName, attrs.Email, attrs.PasswordHash).
		Suffix(`ON CONFLICT (global_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}

// PGAssociationStore persists the central access relation in the
// "tenant_associations" table.
type PGAssociationStore struct {
	db tenancy.Querier
}

// NewPGAssociationStore creates an association store on the central database.
func NewPGAssociationStore(db tenancy.Querier) *PGAssociationStore {
	return &PGAssociationStore{db: db}
}

func (s *PGAssociationStore) Exists(ctx context.Context, globalID, tenantID uuid.UUID) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("tenant_associations").
		Where(sq.Eq{"global_user_id": globalID, "tenant_id": tenantID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *PGAssociationStore) ListTenants(ctx context.Context, globalID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := psql.
		Select("tenant_id").
		From("tenant_associations").
		Where(sq.Eq{"global_user_id": globalID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *PGAssociationStore) Add(ctx context.Context, globalID, tenantID uuid.UUID) error {
	query, args, err := psql.
		Insert("tenant_associations").
		Columns("global_user_id", "tenant_id").
		Values(globalID, tenantID).
		Suffix("ON CONFLICT (global_user_id, tenant_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}

func (s *PGAssociationStore) Remove(ctx context.Context, globalID, tenantID uuid.UUID) error {
	query, args, err := psql.
		Delete("tenant_associations").
		Where(sq.Eq{"global_user_id": globalID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, query, args...)
	return err
}
