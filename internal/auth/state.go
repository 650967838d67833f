package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateState returns a random value for the OAuth state parameter.
// 32 bytes encode to 43 base64url characters.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
