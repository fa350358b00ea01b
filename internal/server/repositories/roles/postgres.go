package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/dbx"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	query :=
		`SELECT id, name, description
		 FROM roles
		 WHERE name = $1
		 `

	role := &models.Role{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	role.Description = description.String

	return role, nil
}

func (r *PostgresRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	query :=
		`INSERT INTO roles (name, description)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, role.Name, role.Description).Scan(&role.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return role, nil
}
