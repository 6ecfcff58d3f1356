// ABOUTME: Credential verification against the single configured principal
// ABOUTME: Uses bcrypt with a dummy-hash comparison for timing parity

package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Principal is the single configured identity the portal authenticates
// against. Loaded from configuration at startup and immutable afterwards.
type Principal struct {
	Username     string
	PasswordHash string // bcrypt hash, generated offline via `chaos-portal hash`
}

// dummyHash is compared when the candidate username does not match, so a
// request with an unknown username takes the same bcrypt work as one with a
// wrong password. Hash of an unused throwaway value.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Verify reports whether the candidate credentials match the configured
// principal. It returns true iff the username matches exactly and the bcrypt
// comparison of the candidate password against the stored hash succeeds.
//
// A malformed stored hash makes bcrypt return an error, which fails closed
// as a non-match. Verify never panics and has no side effects.
func Verify(candidateUsername, candidatePassword string, p Principal) bool {
	if candidateUsername != p.Username {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(candidatePassword))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(candidatePassword)) == nil
}

// HashPassword produces a bcrypt hash of the plaintext password at the
// default cost, suitable for the login.password_hash config value.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
