package authservice

import (
	"errors"
	"time"
)

// Config carries everything the Builder needs beyond its collaborator
// handles. Build clones the config, so mutating it afterwards has no
// effect on a running engine.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig controls access token signing and verification.
type JWTConfig struct {
	// Secret is the HMAC key, at least 32 bytes.
	Secret []byte
	// Algorithm is hs256, hs384 or hs512. Empty means hs256.
	Algorithm string
	// AccessTTL is the access token lifetime. Zero means 15 minutes.
	AccessTTL time.Duration
	Issuer    string
	Leeway    time.Duration
}

// SessionConfig controls the Redis refresh session store.
type SessionConfig struct {
	// KeyPrefix namespaces the session keys. Empty means "auth".
	KeyPrefix string
	// TTL is the refresh session lifetime. Zero means seven days.
	TTL time.Duration
}

// PasswordConfig sets the argon2id cost of newly created hashes.
// A zero value takes the package defaults.
type PasswordConfig struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking the emitting
	// operation when the buffer is full.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with production defaults for
// everything except the JWT secret, which has no sane default and
// must be set by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm: "hs256",
			AccessTTL: 15 * time.Minute,
		},
		Session: SessionConfig{
			KeyPrefix: "auth",
			TTL:       7 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func (c Config) clone() Config {
	out := c
	if c.JWT.Secret != nil {
		out.JWT.Secret = make([]byte, len(c.JWT.Secret))
		copy(out.JWT.Secret, c.JWT.Secret)
	}
	return out
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("config: JWT secret is required")
	}
	if c.JWT.AccessTTL < 0 {
		return errors.New("config: JWT access TTL must be positive")
	}
	if c.Session.TTL < 0 {
		return errors.New("config: session TTL must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be > 0 when audit is enabled")
	}
	return nil
}
