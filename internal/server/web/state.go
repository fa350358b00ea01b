package web

import (
	"context"

	"github.com/dmitrijs2005/nomina/internal/server/models"
)

type ctxKey string

const stateKey ctxKey = "sessionState"

// State is the gate's decision for one request. Token is the raw cookie
// value, which is either an authenticated session token or an anonymous
// pre-session id with no server record. Session is nil when anonymous.
type State struct {
	Token   string
	Session *models.Session
}

func (s *State) Authenticated() bool {
	return s != nil && s.Session != nil
}

// StateFromContext returns the state attached by the gate, or an anonymous
// state when the request did not pass through it.
func StateFromContext(ctx context.Context) *State {
	if s, ok := ctx.Value(stateKey).(*State); ok && s != nil {
		return s
	}
	return &State{}
}

func withState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}
