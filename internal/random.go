// Package internal holds helpers shared across the engine that are
// not part of the public API.
package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// refreshTokenBytes is the entropy of a refresh token. 32 bytes keeps
// the token comfortably beyond brute-force reach for the session TTLs
// the engine supports.
const refreshTokenBytes = 32

// NewRefreshToken returns a fresh opaque refresh token: 32 random
// bytes encoded as unpadded base64url.
func NewRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
