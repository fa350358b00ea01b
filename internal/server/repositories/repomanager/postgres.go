// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose),
// and the Store handle the services work against.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/nomina/internal/dbx"
	"github.com/dmitrijs2005/nomina/internal/server/migrations"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/roles"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DriverName is the database/sql driver registered by pgx/stdlib.
const DriverName = "pgx"

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(DriverName); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// PostgresStore is a Store over a *sql.DB. Inside InTx its repositories are
// bound to the transaction instead of the pool.
type PostgresStore struct {
	db   *sql.DB
	conn dbx.DBTX
	m    RepositoryManager
}

func NewPostgresStore(db *sql.DB, m RepositoryManager) *PostgresStore {
	return &PostgresStore{db: db, conn: db, m: m}
}

func (s *PostgresStore) Accounts() accounts.Repository { return s.m.Accounts(s.conn) }
func (s *PostgresStore) Roles() roles.Repository       { return s.m.Roles(s.conn) }
func (s *PostgresStore) Sessions() sessions.Repository { return s.m.Sessions(s.conn) }

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	if _, nested := s.conn.(*sql.Tx); nested {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &PostgresStore{db: s.db, conn: tx, m: s.m})
	})
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
