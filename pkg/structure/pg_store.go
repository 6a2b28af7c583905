package structure

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore reads and writes the "structures" table of whatever tenant store
// is active on the request context, so a tenant switch transparently rebinds
// every operation.
type PGStore struct{}

// NewPGStore creates a structure store bound to the active tenant store.
func NewPGStore() *PGStore { return &PGStore{} }

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*Structure, error) {
	db, err := tenancy.Store(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "name", "address", "city", "country", "created_at").
		From("structures").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return scanStructure(db.QueryRow(ctx, query, args...))
}

func (s *PGStore) First(ctx context.Context) (*Structure, error) {
	db, err := tenancy.Store(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "name", "address", "city", "country", "created_at").
		From("structures").
		OrderBy("created_at", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	st, err := scanStructure(db.QueryRow(ctx, query, args...))
	if errors.Is(err, ErrStructureNotFound) {
		return nil, ErrNoStructures
	}
	return st, err
}

func (s *PGStore) List(ctx context.Context) ([]*Structure, error) {
	db, err := tenancy.Store(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "name", "address", "city", "country", "created_at").
		From("structures").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Structure
	for rows.Next() {
		var st Structure
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.City, &st.Country, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}

	return out, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, st *Structure) error {
	db, err := tenancy.Store(ctx)
	if err != nil {
		return err
	}

	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}

	query, args, err := psql.
		Insert("structures").
		Columns("id", "name", "address", "city", "country").
		Values(st.ID, st.Name, st.Address, st.City, st.Country).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, query, args...)
	return err
}

func scanStructure(row pgx.Row) (*Structure, error) {
	var st Structure
	if err := row.Scan(&st.ID, &st.Name, &st.Address, &st.City, &st.Country, &st.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStructureNotFound
		}
		return nil, err
	}
	return &st, nil
}
