package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures are collapsed into a small set of sentinels
// so callers can decide between "expired" and "forged or garbled"
// without inspecting library internals.
var (
	ErrTokenExpired     = errors.New("token: expired")
	ErrTokenMalformed   = errors.New("token: malformed")
	ErrSignatureInvalid = errors.New("token: signature invalid")
)

const (
	minSecretBytes   = 32
	DefaultAccessTTL = 15 * time.Minute
)

// Config configures a Manager. Secret is the HMAC signing key and
// must be at least 32 bytes. Zero-value fields fall back to HS256,
// DefaultAccessTTL and no leeway.
type Config struct {
	Secret    []byte
	Algorithm string // hs256, hs384 or hs512
	AccessTTL time.Duration
	Issuer    string
	Leeway    time.Duration
}

// AccessClaims is the payload of an access token. Subject holds the
// user ID; Permissions preserves the order the role's grants were
// created in.
type AccessClaims struct {
	RoleID      string   `json:"rid,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("token: secret must be at least %d bytes", minSecretBytes)
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "", "hs256", "HS256":
		method = jwt.SigningMethodHS256
	case "hs384", "HS384":
		method = jwt.SigningMethodHS384
	case "hs512", "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("token: unsupported algorithm %q", cfg.Algorithm)
	}

	ttl := cfg.AccessTTL
	if ttl == 0 {
		ttl = DefaultAccessTTL
	}
	if ttl < 0 {
		return nil, errors.New("token: access TTL must be positive")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Manager{
		secret: secret,
		method: method,
		ttl:    ttl,
		issuer: cfg.Issuer,
		parser: jwt.NewParser(opts...),
		now:    time.Now,
	}, nil
}

// AccessTTL returns the lifetime stamped into issued tokens.
func (m *Manager) AccessTTL() time.Duration { return m.ttl }

// Issue signs an access token for userID carrying roleID and the
// ordered permission names.
func (m *Manager) Issue(userID, roleID string, permissions []string) (string, error) {
	if userID == "" {
		return "", errors.New("token: empty user ID")
	}

	now := m.now()
	claims := AccessClaims{
		RoleID:      roleID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims. Expired tokens return
// ErrTokenExpired, bad signatures ErrSignatureInvalid and anything
// structurally unsound ErrTokenMalformed.
func (m *Manager) Parse(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}
