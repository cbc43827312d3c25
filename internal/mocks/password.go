package mocks

import (
	"errors"
	"strings"
	"sync"

	"github.com/phrazzld/natours-api/internal/service/auth"
)

// hashPrefix marks values produced by PlainHasher.
const hashPrefix = "plain$"

// ErrPasswordMismatch is returned by PlainHasher.Compare on a mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// PlainHasher implements auth.PasswordHasher and auth.PasswordVerifier
// without any real hashing, so tests stay fast.
type PlainHasher struct {
	mu sync.Mutex

	// HashErr, when set, is returned by Hash.
	HashErr error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordHasher   = (*PlainHasher)(nil)
	_ auth.PasswordVerifier = (*PlainHasher)(nil)
)

// Hash implements auth.PasswordHasher.
func (h *PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return PlainHash(password), nil
}

// Compare implements auth.PasswordVerifier.
func (h *PlainHasher) Compare(hashedPassword, password string) error {
	h.mu.Lock()
	h.CompareCallCount++
	h.mu.Unlock()

	if !strings.HasPrefix(hashedPassword, hashPrefix) || hashedPassword != PlainHash(password) {
		return ErrPasswordMismatch
	}
	return nil
}

// PlainHash returns the value PlainHasher stores for password, for seeding
// users directly.
func PlainHash(password string) string {
	return hashPrefix + password
}
