package server

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nomina/internal/dbx"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
)

var defaultPool = dbx.PoolOptions{
	MaxOpenConns:    20,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

// openDB is a seam for tests.
var openDB = dbx.Open

// OpenStore returns the store selected by cfg.DatabaseDSN with its schema
// migrated. An empty DSN selects the in-memory store.
func OpenStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (repomanager.Store, error) {
	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store")
		return inmemory.New(), nil
	}

	db, err := openDB(ctx, repomanager.DriverName, cfg.DatabaseDSN, defaultPool)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema migration error: %w", err)
	}
	logger.Info(ctx, "schema migrations applied")

	return repomanager.NewPostgresStore(db, m), nil
}
