// Package inmemory provides a thread-safe in-memory repomanager.Store.
//
// It backs the server when no database DSN is configured and is used by
// service and web tests. Data does not survive a restart.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/roles"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/sessions"
	"github.com/google/uuid"
)

// Store keeps accounts, roles and sessions in maps guarded by one RWMutex,
// so cross-map invariants (unique email, role references) hold under
// concurrent use. Values are cloned on the way in and out.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account // keyed by ID
	roles    map[string]*models.Role    // keyed by ID
	sessions map[string]*models.Session // keyed by token hash
	now      func() time.Time
}

var _ repomanager.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
		roles:    make(map[string]*models.Role),
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (s *Store) Accounts() accounts.Repository { return accountRepo{s} }
func (s *Store) Roles() roles.Repository       { return roleRepo{s} }
func (s *Store) Sessions() sessions.Repository { return sessionRepo{s} }

// InTx runs fn directly. Every single repository call is atomic; there is
// no rollback of earlier calls when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, st repomanager.Store) error) error {
	return fn(ctx, s)
}

func (s *Store) Close() error { return nil }

type accountRepo struct{ s *Store }

// withRole returns a copy of a with Role resolved to the current role record.
// Caller must hold s.mu.
func (s *Store) withRole(a *models.Account) *models.Account {
	cp := a.Clone()
	if cp.Role != nil {
		if r, ok := s.roles[cp.Role.ID]; ok {
			rc := *r
			cp.Role = &rc
		} else {
			cp.Role = nil
		}
	}
	return cp
}

func (r accountRepo) FindByEmailCaseInsensitive(_ context.Context, email string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	key := models.NormalizeEmail(email)
	for _, a := range r.s.accounts {
		if models.NormalizeEmail(a.Email) == key {
			return r.s.withRole(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r accountRepo) ListAll(_ context.Context) ([]*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Account, 0, len(r.s.accounts))
	for _, a := range r.s.accounts {
		out = append(out, r.s.withRole(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r accountRepo) Save(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID != "" {
		if _, ok := r.s.accounts[a.ID]; !ok {
			return nil, common.ErrorNotFound
		}
	}

	key := models.NormalizeEmail(a.Email)
	for id, other := range r.s.accounts {
		if id != a.ID && models.NormalizeEmail(other.Email) == key {
			return nil, common.ErrorAlreadyExists
		}
	}

	if a.Role != nil {
		if _, ok := r.s.roles[a.Role.ID]; !ok {
			return nil, common.ErrorNotFound
		}
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
		a.CreatedAt = r.s.now()
	}
	if a.Status == "" {
		a.Status = models.StatusActive
	}
	r.s.accounts[a.ID] = a.Clone()
	return a, nil
}

type roleRepo struct{ s *Store }

func (r roleRepo) FindByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r roleRepo) Create(_ context.Context, role *models.Role) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	role.ID = uuid.NewString()
	cp := *role
	r.s.roles[role.ID] = &cp
	return role, nil
}

type sessionRepo struct{ s *Store }

func cloneSession(s *models.Session) *models.Session {
	cp := *s
	if s.Authorities != nil {
		cp.Authorities = make([]string, len(s.Authorities))
		copy(cp.Authorities, s.Authorities)
	}
	return &cp
}

func (r sessionRepo) Create(_ context.Context, sess *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[sess.AccountID]; !ok {
		return common.ErrorNotFound
	}
	if _, exists := r.s.sessions[sess.TokenHash]; exists {
		return common.ErrorAlreadyExists
	}
	r.s.sessions[sess.TokenHash] = cloneSession(sess)
	return nil
}

func (r sessionRepo) Find(_ context.Context, tokenHash string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneSession(sess), nil
}

func (r sessionRepo) Touch(_ context.Context, tokenHash string, seen time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[tokenHash]
	if !ok {
		return common.ErrorNotFound
	}
	sess.LastSeenAt = seen
	return nil
}

func (r sessionRepo) Delete(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, tokenHash)
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time, idle time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for h, sess := range r.s.sessions {
		if sess.Expired(now, idle) {
			delete(r.s.sessions, h)
			n++
		}
	}
	return n, nil
}
