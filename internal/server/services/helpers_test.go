package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

// putAccount stores an account with the given raw password value and role.
func putAccount(t *testing.T, store *inmemory.Store, email, storedPassword, status, roleName string) *models.Account {
	t.Helper()
	ctx := context.Background()

	var role *models.Role
	if roleName != "" {
		r, err := store.Roles().FindByName(ctx, roleName)
		if err != nil {
			r, err = store.Roles().Create(ctx, &models.Role{Name: roleName})
			require.NoError(t, err)
		}
		role = r
	}

	a, err := store.Accounts().Save(ctx, &models.Account{
		Email:    email,
		Password: storedPassword,
		Status:   status,
		Role:     role,
	})
	require.NoError(t, err)
	return a
}

func mustHash(t *testing.T, h *password.Hasher, plain string) string {
	t.Helper()
	hash, err := h.Hash(plain)
	require.NoError(t, err)
	return hash
}

// faultyStore wraps the in-memory store and injects repository failures.
type faultyStore struct {
	*inmemory.Store

	findErr       error
	listErr       error
	saveErrFor    map[string]error
	createSessErr error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: inmemory.New(), saveErrFor: map[string]error{}}
}

func (f *faultyStore) Accounts() accounts.Repository {
	return &faultyAccounts{Repository: f.Store.Accounts(), f: f}
}

func (f *faultyStore) Sessions() sessions.Repository {
	return &faultySessions{Repository: f.Store.Sessions(), f: f}
}

func (f *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, s repomanager.Store) error) error {
	return fn(ctx, f)
}

type faultyAccounts struct {
	accounts.Repository
	f *faultyStore
}

func (a *faultyAccounts) FindByEmailCaseInsensitive(ctx context.Context, email string) (*models.Account, error) {
	if a.f.findErr != nil {
		return nil, a.f.findErr
	}
	return a.Repository.FindByEmailCaseInsensitive(ctx, email)
}

func (a *faultyAccounts) ListAll(ctx context.Context) ([]*models.Account, error) {
	if a.f.listErr != nil {
		return nil, a.f.listErr
	}
	return a.Repository.ListAll(ctx)
}

func (a *faultyAccounts) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := a.f.saveErrFor[models.NormalizeEmail(account.Email)]; err != nil {
		return nil, err
	}
	return a.Repository.Save(ctx, account)
}

type faultySessions struct {
	sessions.Repository
	f *faultyStore
}

func (s *faultySessions) Create(ctx context.Context, sess *models.Session) error {
	if s.f.createSessErr != nil {
		return s.f.createSessErr
	}
	return s.Repository.Create(ctx, sess)
}

