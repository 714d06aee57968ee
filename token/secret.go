package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// secretBytes is the raw entropy of a freshly minted secret. 256 bits keeps
// both hash collisions and offline guessing infeasible for the 7-day window.
const secretBytes = 32

// NewSecret returns a cryptographically random, hex-encoded secret.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret derives the stored lookup key from a secret. Issuance and
// submission must agree on this function or redemption can never match.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
