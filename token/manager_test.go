package token

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"
)

var testSecret = bytes.Repeat([]byte("k"), 32)

func testManager(t *testing.T, cfg Config) *Manager {
	t.Helper()

	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := testManager(t, Config{Issuer: "authd"})

	perms := []string{"doc:write", "doc:read"}
	raw, err := m.Issue("user-1", "role-editor", perms)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.RoleID != "role-editor" {
		t.Errorf("RoleID = %q, want role-editor", claims.RoleID)
	}
	if !reflect.DeepEqual(claims.Permissions, perms) {
		t.Errorf("Permissions = %v, want %v", claims.Permissions, perms)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultAccessTTL {
		t.Errorf("token lifetime = %v, want %v", got, DefaultAccessTTL)
	}
}

func TestParseExpired(t *testing.T) {
	m := testManager(t, Config{AccessTTL: time.Minute})
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	raw, err := m.Issue("user-1", "role-editor", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Parse err = %v, want ErrTokenExpired", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	issuer := testManager(t, Config{})
	verifier := testManager(t, Config{Secret: bytes.Repeat([]byte("x"), 32)})

	raw, err := issuer.Issue("user-1", "", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Parse(raw); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("Parse err = %v, want ErrSignatureInvalid", err)
	}
}

func TestParseGarbage(t *testing.T) {
	m := testManager(t, Config{})

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.Parse(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Parse(%q) err = %v, want ErrTokenMalformed", raw, err)
		}
	}
}

func TestParseWrongIssuer(t *testing.T) {
	issuer := testManager(t, Config{Issuer: "other-service"})
	verifier := testManager(t, Config{Issuer: "authd"})

	raw, err := issuer.Issue("user-1", "", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Parse(raw); err == nil {
		t.Fatal("token from foreign issuer accepted")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short")}); err == nil {
		t.Error("short secret accepted")
	}
	if _, err := NewManager(Config{Secret: testSecret, Algorithm: "rs256"}); err == nil {
		t.Error("asymmetric algorithm accepted")
	}
	if _, err := NewManager(Config{Secret: testSecret, AccessTTL: -time.Minute}); err == nil {
		t.Error("negative TTL accepted")
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	m := testManager(t, Config{})

	if _, err := m.Issue("", "role", nil); err == nil {
		t.Fatal("empty user ID accepted")
	}
}
