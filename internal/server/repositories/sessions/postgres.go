package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/dbx"
	"github.com/dmitrijs2005/nomina/internal/server/models"
)

const authoritySeparator = ","

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func joinAuthorities(a []string) string {
	return strings.Join(a, authoritySeparator)
}

func splitAuthorities(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, authoritySeparator)
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query :=
		`INSERT INTO sessions (token_hash, account_id, email, authorities, created_at, last_seen_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.TokenHash, s.AccountID, s.Email, joinAuthorities(s.Authorities), s.CreatedAt, s.LastSeenAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenHash string) (*models.Session, error) {
	query :=
		`SELECT token_hash, account_id, email, authorities, created_at, last_seen_at, expires_at
		 FROM sessions
		 WHERE token_hash = $1
		 `

	s := &models.Session{}
	var authorities string
	err := r.db.QueryRowContext(ctx, query, tokenHash).
		Scan(&s.TokenHash, &s.AccountID, &s.Email, &authorities, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.Authorities = splitAuthorities(authorities)

	return s, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, tokenHash string, seen time.Time) error {
	query :=
		`UPDATE sessions
		 SET last_seen_at = $2
		 WHERE token_hash = $1
		 `

	res, err := r.db.ExecContext(ctx, query, tokenHash, seen)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// Delete is idempotent: removing a missing session is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, tokenHash string) error {
	query :=
		`DELETE FROM sessions
		 WHERE token_hash = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time, idle time.Duration) (int64, error) {
	query :=
		`DELETE FROM sessions
		 WHERE expires_at <= $1 OR last_seen_at <= $2
		 `

	idleCutoff := time.Time{}
	if idle > 0 {
		idleCutoff = now.Add(-idle)
	}

	res, err := r.db.ExecContext(ctx, query, now, idleCutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
