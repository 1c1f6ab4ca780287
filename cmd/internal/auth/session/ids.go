package session

import (
	"crypto/rand"
	"encoding/base64"
)

// NewSessionID returns an unguessable, URL-safe session identifier built
// from nBytes of cryptographically secure randomness.
func NewSessionID(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// URL-safe, no padding.
	return base64.RawURLEncoding.EncodeToString(b), nil
}
