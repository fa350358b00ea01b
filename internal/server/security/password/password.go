// Package password hashes and verifies account passwords with bcrypt and
// classifies stored values as strong hashes or legacy plaintext.
package password

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used unless configured otherwise.
const DefaultCost = 12

var ErrInvalidCost = errors.New("invalid bcrypt cost")

// strongHash matches the 60-character bcrypt modular crypt encoding.
var strongHash = regexp.MustCompile(`^\$2[aby]\$.{56}$`)

// IsStrongHash reports whether stored is already a bcrypt hash.
func IsStrongHash(stored string) bool {
	return strongHash.MatchString(stored)
}

// Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of plain. Two calls with the same input
// return different strings.
func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. A malformed hash is a mismatch.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy burns one comparison at the configured cost. Login calls it
// when no account matched so both outcomes take about the same time.
func (h *Hasher) VerifyDummy(plain string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("nomina-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
