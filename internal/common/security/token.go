package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewToken returns an opaque, url-safe bearer token. Tokens carry no
// embedded claims; the token store resolves them to a user.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
