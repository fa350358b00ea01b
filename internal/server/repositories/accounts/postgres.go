package accounts

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

const uniqueViolation = "23505"

const selectAccount = `SELECT a.id, a.email, a.password, a.status, a.first_name, a.last_name, a.created_at,
		        r.id, r.name, r.description
		 FROM accounts a
		 LEFT JOIN roles r ON r.id = a.role_id`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var roleID, roleName, roleDescription sql.NullString

	err := row.Scan(&a.ID, &a.Email, &a.Password, &a.Status, &a.FirstName, &a.LastName, &a.CreatedAt,
		&roleID, &roleName, &roleDescription)
	if err != nil {
		return nil, err
	}

	if roleID.Valid {
		a.Role = &models.Role{ID: roleID.String, Name: roleName.String, Description: roleDescription.String}
	}
	return a, nil
}

func (r *PostgresRepository) FindByEmailCaseInsensitive(ctx context.Context, email string) (*models.Account, error) {
	query := selectAccount + `
		 WHERE lower(a.email) = lower($1)
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Account, error) {
	query := selectAccount + `
		 ORDER BY a.created_at, a.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Save(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.ID == "" {
		return r.insert(ctx, a)
	}
	return r.update(ctx, a)
}

func (r *PostgresRepository) insert(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password, status, first_name, last_name, role_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.Email, a.Password, a.Status, a.FirstName, a.LastName, roleArg(a)).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return a, nil
}

func (r *PostgresRepository) update(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET email = $2, password = $3, status = $4, first_name = $5, last_name = $6, role_id = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Password, a.Status, a.FirstName, a.LastName, roleArg(a))
	if err != nil {
		return nil, mapWriteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	return a, nil
}

func roleArg(a *models.Account) any {
	if id := a.RoleID(); id != nil {
		return *id
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}
