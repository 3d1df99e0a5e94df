package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CheckPassword compares submitted against the configured admin secret. When
// hash is set it is treated as a bcrypt hash and plain is ignored.
func CheckPassword(submitted, plain, hash string) bool {
	if submitted == "" {
		return false
	}
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(submitted)) == nil
	}
	if plain == "" {
		return false
	}
	// Digests have a fixed length, so the compare does not leak the secret's length.
	got := sha256.Sum256([]byte(submitted))
	want := sha256.Sum256([]byte(plain))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1
}
