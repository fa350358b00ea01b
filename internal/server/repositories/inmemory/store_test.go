package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *inmemory.Store, email string, role *models.Role) *models.Account {
	t.Helper()
	a, err := s.Accounts().Save(context.Background(), &models.Account{
		Email:    email,
		Password: "plain",
		Status:   models.StatusActive,
		Role:     role,
	})
	require.NoError(t, err)
	return a
}

func TestAccounts_FindIsCaseInsensitive(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()

	role, err := s.Roles().Create(ctx, &models.Role{Name: "ADMIN"})
	require.NoError(t, err)
	saved := seedAccount(t, s, "user@example.com", role)
	require.NotEmpty(t, saved.ID)

	for _, email := range []string{"user@example.com", "User@Example.com", "  USER@EXAMPLE.COM "} {
		got, err := s.Accounts().FindByEmailCaseInsensitive(ctx, email)
		require.NoError(t, err, email)
		assert.Equal(t, saved.ID, got.ID)
		require.NotNil(t, got.Role)
		assert.Equal(t, "ADMIN", got.Role.Name)
	}
}

func TestAccounts_FindNotFound(t *testing.T) {
	s := inmemory.New()
	_, err := s.Accounts().FindByEmailCaseInsensitive(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccounts_SaveRejectsDuplicateEmail(t *testing.T) {
	s := inmemory.New()
	seedAccount(t, s, "dup@example.com", nil)

	_, err := s.Accounts().Save(context.Background(), &models.Account{Email: "DUP@example.com", Password: "x"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestAccounts_SaveUpdatesExisting(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	a := seedAccount(t, s, "u@example.com", nil)

	a.Password = "$2a$12$changed"
	_, err := s.Accounts().Save(ctx, a)
	require.NoError(t, err)

	got, err := s.Accounts().FindByEmailCaseInsensitive(ctx, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$changed", got.Password)
}

func TestAccounts_SaveUnknownID(t *testing.T) {
	s := inmemory.New()
	_, err := s.Accounts().Save(context.Background(), &models.Account{ID: "nope", Email: "x@example.com"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccounts_ReturnedValuesAreCopies(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	seedAccount(t, s, "u@example.com", nil)

	got, err := s.Accounts().FindByEmailCaseInsensitive(ctx, "u@example.com")
	require.NoError(t, err)
	got.Password = "mutated"

	again, err := s.Accounts().FindByEmailCaseInsensitive(ctx, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "plain", again.Password)
}

func TestAccounts_ListAll(t *testing.T) {
	s := inmemory.New()
	seedAccount(t, s, "a@example.com", nil)
	seedAccount(t, s, "b@example.com", nil)

	all, err := s.Accounts().ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRoles_CreateAndFind(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()

	_, err := s.Roles().Create(ctx, &models.Role{Name: "USER", Description: "users"})
	require.NoError(t, err)

	got, err := s.Roles().FindByName(ctx, "USER")
	require.NoError(t, err)
	assert.Equal(t, "users", got.Description)

	_, err = s.Roles().Create(ctx, &models.Role{Name: "USER"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = s.Roles().FindByName(ctx, "MISSING")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSessions_Lifecycle(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	a := seedAccount(t, s, "u@example.com", nil)

	now := time.Now()
	sess := &models.Session{
		TokenHash:   "h1",
		AccountID:   a.ID,
		Email:       a.Email,
		Authorities: []string{"ROLE_USUARIO"},
		CreatedAt:   now,
		LastSeenAt:  now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, s.Sessions().Create(ctx, sess))
	assert.ErrorIs(t, s.Sessions().Create(ctx, sess), common.ErrorAlreadyExists)

	later := now.Add(time.Minute)
	require.NoError(t, s.Sessions().Touch(ctx, "h1", later))

	got, err := s.Sessions().Find(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, later, got.LastSeenAt)
	assert.Equal(t, []string{"ROLE_USUARIO"}, got.Authorities)

	require.NoError(t, s.Sessions().Delete(ctx, "h1"))
	_, err = s.Sessions().Find(ctx, "h1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, s.Sessions().Touch(ctx, "h1", later), common.ErrorNotFound)
}

func TestSessions_CreateRequiresAccount(t *testing.T) {
	s := inmemory.New()
	err := s.Sessions().Create(context.Background(), &models.Session{TokenHash: "h", AccountID: "missing"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSessions_DeleteExpired(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	a := seedAccount(t, s, "u@example.com", nil)
	now := time.Now()

	add := func(hash string, lastSeen, expires time.Time) {
		require.NoError(t, s.Sessions().Create(ctx, &models.Session{
			TokenHash: hash, AccountID: a.ID, CreatedAt: lastSeen, LastSeenAt: lastSeen, ExpiresAt: expires,
		}))
	}
	add("fresh", now, now.Add(time.Hour))
	add("idle", now.Add(-time.Hour), now.Add(time.Hour))
	add("old", now, now.Add(-time.Second))

	n, err := s.Sessions().DeleteExpired(ctx, now, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Sessions().Find(ctx, "fresh")
	assert.NoError(t, err)
}

func TestInTx_PassesStore(t *testing.T) {
	s := inmemory.New()
	var seen repomanager.Store
	err := s.InTx(context.Background(), func(ctx context.Context, tx repomanager.Store) error {
		seen = tx
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, s, seen)
}

func TestConcurrentSaves(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Accounts().Save(ctx, &models.Account{Email: fmt.Sprintf("u%d@example.com", i), Password: "p"})
			_, _ = s.Accounts().FindByEmailCaseInsensitive(ctx, "u0@example.com")
		}(i)
	}
	wg.Wait()

	all, err := s.Accounts().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
