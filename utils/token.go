package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken returns a 32-hex-char random token for OAuth state.
func GenerateSecureToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
