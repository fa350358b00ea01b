package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/config"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/security/password"
)

// sessionTokenBytes is the entropy of a session token before hex encoding.
const sessionTokenBytes = 32

// SessionService runs the login and logout transitions and resolves session
// tokens presented by clients.
type SessionService struct {
	store       repomanager.Store
	auth        *AuthenticationService
	hasher      *password.Hasher
	log         logging.Logger
	idleTimeout time.Duration
	maxLifetime time.Duration
	now         func() time.Time
}

func NewSessionService(store repomanager.Store, auth *AuthenticationService, hasher *password.Hasher, log logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		store:       store,
		auth:        auth,
		hasher:      hasher,
		log:         log.With("module", "sessions"),
		idleTimeout: cfg.SessionIdleTimeout,
		maxLifetime: cfg.SessionMaxLifetime,
		now:         time.Now,
	}
}

// MaxLifetime is the absolute lifetime of a session.
func (s *SessionService) MaxLifetime() time.Duration { return s.maxLifetime }

// Login checks the credentials and, on success, creates a session and
// returns its token. The session bound to previousToken, if any, is removed
// in the same unit of work so a token is never reused across a login.
//
// Credential failures wrap common.ErrInvalidCredentials together with the
// precise reason. Store failures wrap common.ErrorInternal.
func (s *SessionService) Login(ctx context.Context, email, plain, previousToken string) (string, *models.Session, error) {
	log := logging.FromContext(ctx, s.log)

	p, err := s.auth.Authenticate(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			s.hasher.VerifyDummy(plain)
			log.Info(ctx, "login rejected", "email", email, "reason", err)
			return "", nil, fmt.Errorf("%w: %w", common.ErrInvalidCredentials, err)
		}
		return "", nil, err
	}

	var reason error
	switch {
	case !s.hasher.Verify(plain, p.CredentialHash):
		reason = common.ErrCredentialMismatch
	case p.Locked:
		reason = common.ErrAccountLocked
	case !p.Enabled:
		reason = common.ErrAccountDisabled
	}
	if reason != nil {
		log.Info(ctx, "login rejected", "email", email, "reason", reason)
		return "", nil, fmt.Errorf("%w: %w", common.ErrInvalidCredentials, reason)
	}

	token, err := common.MakeRandHexString(sessionTokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	now := s.now()
	session := &models.Session{
		TokenHash:   common.HashToken(token),
		AccountID:   p.AccountID,
		Email:       p.Identity,
		Authorities: p.Authorities,
		CreatedAt:   now,
		LastSeenAt:  now,
		ExpiresAt:   now.Add(s.maxLifetime),
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		if previousToken != "" {
			if err := tx.Sessions().Delete(ctx, common.HashToken(previousToken)); err != nil {
				return err
			}
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		log.Error(ctx, "session create failed", "email", p.Identity, "error", err)
		return "", nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	log.Info(ctx, "login succeeded", "email", p.Identity, "authorities", p.Authorities)
	return token, session, nil
}

// Resolve returns the live session for token. Unknown tokens yield
// common.ErrorNotFound; expired ones are deleted and yield
// common.ErrSessionExpired. A live session has its last-seen time refreshed.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}

	hash := common.HashToken(token)
	repo := s.store.Sessions()

	session, err := repo.Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	now := s.now()
	if session.Expired(now, s.idleTimeout) {
		if err := repo.Delete(ctx, hash); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		return nil, common.ErrSessionExpired
	}

	if err := repo.Touch(ctx, hash, now); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	session.LastSeenAt = now

	return session, nil
}

// Logout removes the session bound to token before returning, so the next
// request carrying the same token resolves as anonymous.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Sessions().Delete(ctx, common.HashToken(token)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return nil
}

// SweepExpired deletes every expired session and reports how many went away.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.Sessions().DeleteExpired(ctx, s.now(), s.idleTimeout)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}
