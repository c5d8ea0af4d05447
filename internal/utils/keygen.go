package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateAPIKey generates a random API key with the given prefix.
// Format: prefix_randomhex
// Example: sl_live_a1b2c3d4e5f6...
func GenerateAPIKey(prefix string) (string, error) {
	b := make([]byte, 32) // 64 char hex
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// GenerateTenantKey generates a tenant API key: sl_live_xxx
func GenerateTenantKey() (string, error) {
	return GenerateAPIKey("sl_live")
}

// GenerateVerificationToken generates a webhook verification token: sl_verify_xxx
func GenerateVerificationToken() (string, error) {
	return GenerateAPIKey("sl_verify")
}
