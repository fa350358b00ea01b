package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
)

// Seeder creates the bootstrap administrator on an empty installation.
type Seeder struct {
	store    repomanager.Store
	hasher   *password.Hasher
	log      logging.Logger
	email    string
	password string
	role     string
}

func NewSeeder(store repomanager.Store, hasher *password.Hasher, log logging.Logger, cfg *config.Config) *Seeder {
	return &Seeder{
		store:    store,
		hasher:   hasher,
		log:      log.With("module", "seeder"),
		email:    models.NormalizeEmail(cfg.SeedAdminEmail),
		password: cfg.SeedAdminPassword,
		role:     cfg.SeedAdminRole,
	}
}

// Seed creates the configured account and its role when the account does
// not exist yet. Existing accounts are never modified. It reports whether an
// account was created.
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	if s.email == "" {
		return false, nil
	}

	created := false
	err := s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		_, err := tx.Accounts().FindByEmailCaseInsensitive(ctx, s.email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		var role *models.Role
		if s.role != "" {
			role, err = s.findOrCreateRole(ctx, tx)
			if err != nil {
				return err
			}
		}

		hash, err := s.hasher.Hash(s.password)
		if err != nil {
			return err
		}

		_, err = tx.Accounts().Save(ctx, &models.Account{
			Email:    s.email,
			Password: hash,
			Status:   models.StatusActive,
			Role:     role,
		})
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding %s: %w", s.email, err)
	}

	if created {
		s.log.Info(ctx, "seed account created", "email", s.email, "role", s.role)
	}
	return created, nil
}

func (s *Seeder) findOrCreateRole(ctx context.Context, tx repomanager.Store) (*models.Role, error) {
	role, err := tx.Roles().FindByName(ctx, s.role)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	return tx.Roles().Create(ctx, &models.Role{Name: s.role})
}
