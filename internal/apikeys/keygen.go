package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	// secretBytes is the entropy of a generated secret: 32 bytes = 256 bits.
	secretBytes = 32
	// PrefixWidth is the number of leading hex characters stored as the
	// public lookup prefix.
	PrefixWidth = 8
)

// GenerateSecret produces a new credential secret along with its lookup
// prefix and storage hash. The secret is hex encoded, so the prefix is
// simply its leading characters.
func GenerateSecret() (secret, prefix, hash string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("apikeys: generate secret: %w", err)
	}
	secret = hex.EncodeToString(buf)
	return secret, secret[:PrefixWidth], HashSecret(secret), nil
}

// HashSecret computes the one-way storage hash of a secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretMatches compares a presented secret against a stored hash in
// constant time.
func SecretMatches(presented, storedHash string) bool {
	computed := HashSecret(presented)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
