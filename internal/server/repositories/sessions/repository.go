// Package sessions persists server-side session records keyed by the
// SHA-256 digest of the client's session token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/nomina/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, tokenHash string) (*models.Session, error)
	Touch(ctx context.Context, tokenHash string, seen time.Time) error
	Delete(ctx context.Context, tokenHash string) error
	// DeleteExpired removes sessions past their absolute expiry or idle for
	// at least idle, and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time, idle time.Duration) (int64, error)
}
