package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"erent/internal/app/services/auth"
)

// BcryptHasher hashes passwords with bcrypt. A cost below bcrypt.MinCost
// falls back to bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare returns auth.ErrInvalidCredentials on a mismatch.
func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return auth.ErrInvalidCredentials
	}
	return err
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

var _ auth.PasswordHasher = BcryptHasher{}
