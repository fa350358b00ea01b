package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/nomina/internal/dbx"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/roles"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Roles(db dbx.DBTX) roles.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// Store groups the repositories the services need behind a single handle.
// Repositories returned by a Store obtained through InTx share one transaction.
type Store interface {
	Accounts() accounts.Repository
	Roles() roles.Repository
	Sessions() sessions.Repository
	// InTx runs fn as one unit of work. fn's error rolls the work back.
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	Close() error
}
