// Package server initializes and runs the authentication server.
// It opens the credential store, migrates the schema and legacy passwords,
// seeds the bootstrap account, and serves the web login surface and the
// gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/security/csrf"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
	"github.com/dmitrijs2005/nomina/internal/server/services"
	"github.com/dmitrijs2005/nomina/internal/server/web"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/nomina/internal/server/grpc"
)

const sessionSweepInterval = 5 * time.Minute

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     repomanager.Store
	migration *services.PasswordMigrationService
	seeder    *services.Seeder
	sessions  *services.SessionService
	grpc      *gs.GRPCServer
	http      *web.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	auth := services.NewAuthenticationService(store)
	sessions := services.NewSessionService(store, auth, hasher, logger, c)
	antiForgery := csrf.NewService([]byte(c.SecretKey), c.SessionMaxLifetime)

	router, err := web.NewRouter(c, sessions, antiForgery, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("web init error: %w", err)
	}

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		migration: services.NewPasswordMigrationService(store, hasher, logger),
		seeder:    services.NewSeeder(store, hasher, logger, c),
		sessions:  sessions,
		grpc:      gs.NewGRPCServer(c.GRPCAddr, logger),
		http:      web.NewHTTPServer(c.HTTPAddr, router, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepare runs the one-off startup work. Logins are not accepted before it
// returns, so no login races a password rewrite. A failed migration pass is
// logged and does not stop startup; a failed seed does.
func (app *App) prepare(ctx context.Context) error {
	if _, err := app.migration.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		// Stored passwords stay as they are until the next start.
		app.logger.Error(ctx, "password migration failed", "error", err)
	}
	if _, err := app.seeder.Seed(ctx); err != nil {
		return err
	}
	return nil
}

func (app *App) sweepSessions(ctx context.Context) error {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := app.sessions.SweepExpired(ctx); err != nil {
				app.logger.Warn(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

// Run blocks until a signal arrives, ctx is cancelled or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.store.Close(); err != nil {
			app.logger.Error(ctx, "store close error", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.grpc.Run(ctx) })

	if err := app.prepare(ctx); err != nil {
		app.logger.Error(ctx, "startup failed", "error", err)
		cancelFunc()
		_ = g.Wait()
		return err
	}

	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.sweepSessions(ctx) })

	app.grpc.SetServing(true)
	app.logger.Info(ctx, "App ready")

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}
