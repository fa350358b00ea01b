package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestAccount_RoleIDAndClone(t *testing.T) {
	a := &Account{ID: "1", Email: "a@b.c"}
	assert.Nil(t, a.RoleID())

	a.Role = &Role{ID: "r1", Name: "ADMIN"}
	if assert.NotNil(t, a.RoleID()) {
		assert.Equal(t, "r1", *a.RoleID())
	}

	cp := a.Clone()
	cp.Role.Name = "USER"
	assert.Equal(t, "ADMIN", a.Role.Name, "clone must not share the role")
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{
		LastSeenAt: now.Add(-10 * time.Minute),
		ExpiresAt:  now.Add(time.Hour),
	}

	assert.False(t, s.Expired(now, 30*time.Minute))
	assert.True(t, s.Expired(now, 5*time.Minute), "idle timeout exceeded")
	assert.False(t, s.Expired(now, 0), "zero idle disables the idle check")
	assert.True(t, s.Expired(now.Add(time.Hour), 0), "absolute expiry reached")
}
