package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// sessionTokenBytes is the entropy of an opaque session token. 32 bytes keeps
// tokens unguessable; the user_sessions table additionally enforces UNIQUE.
const sessionTokenBytes = 32

// NewSessionToken returns a URL-safe opaque session token drawn from the
// system CSPRNG.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
