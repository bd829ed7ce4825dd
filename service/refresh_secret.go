// file: service/refresh_secret.go

package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const refreshSecretSize = 32

// NewRefreshSecret returns a fresh random refresh secret and its storage hash.
// The raw value is only ever handed to the client.
func NewRefreshSecret() (raw string, hash string, err error) {
	var secret [refreshSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", "", fmt.Errorf("generating refresh secret: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(secret[:])
	return raw, HashRefreshSecret(raw), nil
}

// HashRefreshSecret computes the sha256 hex digest stored in place of the secret.
func HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// wellFormedRefreshSecret rejects values that this service could never have issued.
func wellFormedRefreshSecret(raw string) bool {
	if len(raw) != base64.RawURLEncoding.EncodedLen(refreshSecretSize) {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	return err == nil && len(decoded) == refreshSecretSize
}
