package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewSessionToken returns an opaque random token. Validity is not encoded
// in the token itself; the session manager persists the expiry next to it
// and checks it lazily on every read.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
