// Package services contains server-side business logic: resolving accounts
// into principals, logging in and out, migrating legacy passwords and
// seeding the initial administrator.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/dmitrijs2005/nomina/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nomina/internal/server/security/principal"
)

// AuthenticationService answers "does this identity exist and what are its
// claims". It never looks at the submitted password.
type AuthenticationService struct {
	store repomanager.Store
}

func NewAuthenticationService(store repomanager.Store) *AuthenticationService {
	return &AuthenticationService{store: store}
}

// Authenticate looks the account up by email ignoring case and adapts it.
// Returns common.ErrAccountNotFound when there is no such account, and an
// error wrapping common.ErrorInternal when the store fails.
func (s *AuthenticationService) Authenticate(ctx context.Context, email string) (principal.Principal, error) {
	account, err := s.store.Accounts().FindByEmailCaseInsensitive(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return principal.Principal{}, common.ErrAccountNotFound
		}
		logging.FromContext(ctx, logging.Nop{}).Error(ctx, "account lookup failed", "error", err)
		return principal.Principal{}, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return principal.Adapt(account), nil
}
