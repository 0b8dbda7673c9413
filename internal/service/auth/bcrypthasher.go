package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Cost used by provisioning tools of the user store, hashes stay interchangeable
const DefaultBcryptCost = 10

var DefaultHasher = BcryptHasher{Cost: DefaultBcryptCost}

// Bcrypt password hasher
// Will be used as default one if user not provide it's own
type BcryptHasher struct {
	// bcrypt.DefaultCost if zero
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// Compare runs in constant time for the given hash
func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
