package authservice

import (
	"bytes"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("default access TTL = %v, want 15m", cfg.JWT.AccessTTL)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Fatalf("default session TTL = %v, want 168h", cfg.Session.TTL)
	}
	if cfg.Session.KeyPrefix != "auth" {
		t.Fatalf("default key prefix = %q", cfg.Session.KeyPrefix)
	}
	if err := cfg.validate(); err == nil {
		t.Fatal("config without a secret validated")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = bytes.Repeat([]byte("k"), 32)
	if err := cfg.validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := cfg
	bad.JWT.AccessTTL = -time.Minute
	if err := bad.validate(); err == nil {
		t.Fatal("negative access TTL accepted")
	}

	bad = cfg
	bad.Session.TTL = -time.Hour
	if err := bad.validate(); err == nil {
		t.Fatal("negative session TTL accepted")
	}

	bad = cfg
	bad.Audit.Enabled = true
	bad.Audit.BufferSize = 0
	if err := bad.validate(); err == nil {
		t.Fatal("enabled audit with zero buffer accepted")
	}
}

func TestConfigCloneIsolatesSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("original-secret-material-32bytes")

	cloned := cfg.clone()
	cloned.JWT.Secret[0] = 'X'

	if cfg.JWT.Secret[0] == 'X' {
		t.Fatal("clone shares the secret backing array")
	}
}
