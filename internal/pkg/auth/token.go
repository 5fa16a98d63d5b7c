package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// OpaqueTokenBytes is the entropy of API tokens; hex-encoded this yields the
// 40-character keys clients present as "Authorization: Bearer <token>".
const OpaqueTokenBytes = 20

// NewOpaqueToken generates a random API token.
func NewOpaqueToken() (string, error) {
	b := make([]byte, OpaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
