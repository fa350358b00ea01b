package models

import "time"

// Session is the server-side record of an authenticated session. The client
// holds the opaque token; only its SHA-256 digest is stored.
type Session struct {
	TokenHash   string
	AccountID   string
	Email       string
	Authorities []string
	CreatedAt   time.Time
	LastSeenAt  time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its absolute expiry or has
// been idle longer than idle at instant now.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	if !now.Before(s.ExpiresAt) {
		return true
	}
	return idle > 0 && now.Sub(s.LastSeenAt) >= idle
}
