package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken generates the SHA-256 hash of a token string. Session, refresh
// and reset tokens are only ever stored hashed; lookups hash the presented
// token and match against the stored value in the database.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
