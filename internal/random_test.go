package internal

import (
	"encoding/base64"
	"testing"
)

func TestNewRefreshToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewRefreshToken()
		if err != nil {
			t.Fatalf("NewRefreshToken: %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token is not base64url: %v", err)
		}
		if len(raw) != 32 {
			t.Fatalf("token entropy = %d bytes, want 32", len(raw))
		}

		if _, dup := seen[tok]; dup {
			t.Fatal("duplicate refresh token")
		}
		seen[tok] = struct{}{}
	}
}
