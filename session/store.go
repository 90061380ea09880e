package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vadimvill/auth-service/internal"
)

var (
	// ErrSessionNotFound means the refresh token or user has no live
	// session; deleted, expired and never-issued tokens are
	// indistinguishable here.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrRedisUnavailable wraps transport-level Redis failures so
	// callers can tell an absent session from a broken backend.
	ErrRedisUnavailable = errors.New("session: redis unavailable")
)

const DefaultTTL = 7 * 24 * time.Hour

// Config configures a Store. Prefix namespaces every key so several
// deployments can share one Redis.
type Config struct {
	Prefix string
	TTL    time.Duration
}

// Store reads and writes refresh sessions. It is stateless apart from
// the client and safe for concurrent use.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore returns a Store over client. Zero-value config fields fall
// back to the "auth" prefix and DefaultTTL.
func NewStore(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("session: nil redis client")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "auth"
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("session: TTL must be positive")
	}
	return &Store{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

// TTL returns the lifetime applied to new sessions.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) tokenKey(token string) string {
	return s.prefix + ":rt:" + token
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":uid:" + userID
}

// Create mints a fresh random token and stores it as userID's refresh
// session. The two keys are written with independent commands; a
// crash between them can leave a resolvable token without a reverse
// entry, which the TTL cleans up. A newer session for the same user
// supersedes the reverse entry, so Revoke always targets the latest
// token.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("session: empty user ID")
	}
	token, err := internal.NewRefreshToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.tokenKey(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if err := s.client.Set(ctx, s.userKey(userID), token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Resolve returns the user ID that owns token, or ErrSessionNotFound.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return userID, nil
}

// CurrentToken returns userID's live refresh token, or
// ErrSessionNotFound when the user has no session.
func (s *Store) CurrentToken(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Revoke removes userID's session. Revoking a user with no session is
// a success; deleting absent keys changes nothing.
func (s *Store) Revoke(ctx context.Context, userID string) error {
	token, err := s.CurrentToken(ctx, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if err := s.client.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
