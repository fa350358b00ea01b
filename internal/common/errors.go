// Package common defines shared constants and sentinel errors used across
// the authentication layer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Authentication sub-reasons. They are distinguishable inside the process
	// and must be collapsed into ErrInvalidCredentials at the HTTP boundary.
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountLocked      = errors.New("account locked")

	// ErrInvalidCredentials is the only login failure the client ever sees.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Anti-forgery errors (missing or invalid token on a state-changing request).
	ErrAntiForgeryRejected = errors.New("anti-forgery token rejected")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
)
