package models

import (
	"strings"
	"time"
)

// Account statuses as stored by the credential store. Comparisons are
// case-insensitive.
const (
	StatusActive    = "ACTIVO"
	StatusInactive  = "INACTIVO"
	StatusSuspended = "SUSPENDIDO"
)

// Role is a named group of accounts. Name is unique.
type Role struct {
	ID          string
	Name        string
	Description string
}

// Account is a stored credential record. Email is the login identifier and
// is unique case-insensitively. Role is nil when no role is assigned.
type Account struct {
	ID        string
	Email     string
	Password  string
	Status    string
	FirstName string
	LastName  string
	Role      *Role
	CreatedAt time.Time
}

// NormalizeEmail is the canonical form used for case-insensitive lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleID returns the id of the assigned role, or nil when there is none.
func (a *Account) RoleID() *string {
	if a.Role == nil || a.Role.ID == "" {
		return nil
	}
	id := a.Role.ID
	return &id
}

// Clone returns a deep copy so callers never share the Role pointer.
func (a *Account) Clone() *Account {
	cp := *a
	if a.Role != nil {
		r := *a.Role
		cp.Role = &r
	}
	return &cp
}
