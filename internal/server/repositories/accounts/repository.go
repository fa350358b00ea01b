// Package accounts provides the credential store: account records keyed by
// case-insensitive email, with the assigned role loaded eagerly.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/nomina/internal/server/models"
)

type Repository interface {
	// FindByEmailCaseInsensitive returns the account whose email equals email
	// ignoring case, or common.ErrorNotFound.
	FindByEmailCaseInsensitive(ctx context.Context, email string) (*models.Account, error)
	// ListAll returns every stored account.
	ListAll(ctx context.Context) ([]*models.Account, error)
	// Save inserts an account without ID or updates the one with the given ID.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
}
