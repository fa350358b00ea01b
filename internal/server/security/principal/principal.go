// Package principal derives the authorization view of an account.
package principal

import (
	"strings"

	"github.com/dmitrijs2005/nomina/internal/server/models"
)

const (
	AuthorityPrefix = "ROLE_"
	// DefaultRoleName is assumed for accounts with no role assigned.
	DefaultRoleName = "usuario"

	enabledStatus = "ACTIVO"
	lockedStatus  = "suspendido"
)

// Principal is the identity and claims of an account at one point in time.
// It is built fresh for every authentication attempt and never persisted.
type Principal struct {
	AccountID      string
	Identity       string
	CredentialHash string
	Authorities    []string
	Enabled        bool
	Locked         bool
}

// Adapt builds a Principal from a snapshot of a. It performs no I/O.
// Enabled and Locked are evaluated independently: a status that is neither
// active nor suspended yields a principal that is disabled but not locked.
func Adapt(a *models.Account) Principal {
	roleName := DefaultRoleName
	if a.Role != nil {
		roleName = a.Role.Name
	}

	return Principal{
		AccountID:      a.ID,
		Identity:       a.Email,
		CredentialHash: a.Password,
		Authorities:    []string{AuthorityPrefix + strings.ToUpper(roleName)},
		Enabled:        strings.EqualFold(a.Status, enabledStatus),
		Locked:         strings.EqualFold(a.Status, lockedStatus),
	}
}

// CanAuthenticate reports whether the account state admits a login.
func (p Principal) CanAuthenticate() bool {
	return p.Enabled && !p.Locked
}

func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
