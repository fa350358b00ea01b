package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
)

// MigrationReport counts what one migration pass did.
type MigrationReport struct {
	Scanned  int
	Migrated int
	Strong   int
	Blank    int
	Failed   int
}

// PasswordMigrationService rewrites stored passwords that are not bcrypt
// hashes. It is run once at startup, before the web server accepts logins.
type PasswordMigrationService struct {
	store  repomanager.Store
	hasher *password.Hasher
	log    logging.Logger
}

func NewPasswordMigrationService(store repomanager.Store, hasher *password.Hasher, log logging.Logger) *PasswordMigrationService {
	return &PasswordMigrationService{store: store, hasher: hasher, log: log.With("module", "password-migration")}
}

// Run scans every account and hashes weak passwords, one transaction per
// account. A failing account is logged and skipped; only a failure to list
// the accounts aborts the pass. Blank passwords are left alone.
func (s *PasswordMigrationService) Run(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	all, err := s.store.Accounts().ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("listing accounts: %w", err)
	}

	for _, a := range all {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		switch {
		case strings.TrimSpace(a.Password) == "":
			report.Blank++
			continue
		case password.IsStrongHash(a.Password):
			report.Strong++
			continue
		}

		migrated, err := s.migrateOne(ctx, a.Email)
		if err != nil {
			report.Failed++
			s.log.Warn(ctx, "password migration failed", "email", a.Email, "error", err)
			continue
		}
		if migrated {
			report.Migrated++
			s.log.Info(ctx, "password migrated", "email", a.Email)
		} else {
			report.Strong++
		}
	}

	s.log.Info(ctx, "password migration finished",
		"scanned", report.Scanned, "migrated", report.Migrated, "strong", report.Strong,
		"blank", report.Blank, "failed", report.Failed)

	return report, nil
}

// migrateOne re-reads the account inside its own transaction so a value
// rewritten since the scan is not hashed twice.
func (s *PasswordMigrationService) migrateOne(ctx context.Context, email string) (bool, error) {
	migrated := false

	err := s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		a, err := tx.Accounts().FindByEmailCaseInsensitive(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(a.Password) == "" || password.IsStrongHash(a.Password) {
			return nil
		}

		hash, err := s.hasher.Hash(a.Password)
		if err != nil {
			return err
		}
		a.Password = hash

		if _, err := tx.Accounts().Save(ctx, a); err != nil {
			return err
		}
		migrated = true
		return nil
	})

	return migrated, err
}
