// Package roles stores the named roles accounts can be assigned to.
package roles

import (
	"context"

	"github.com/dmitrijs2005/nomina/internal/server/models"
)

type Repository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
}
