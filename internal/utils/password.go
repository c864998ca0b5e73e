package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the floor we accept for password hashing. bcrypt's own
// default is 10; anything lower is rejected and bumped up.
const MinBcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password using bcrypt with the given cost.
// bcrypt generates a fresh salt on every call, so replacing a password never
// reuses the old salt.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// CheckPasswordHash compares a plaintext password with a bcrypt hash.
// bcrypt's comparison is constant-time.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
