package authservice

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Vadimvill/auth-service/internal/audit"
	"github.com/Vadimvill/auth-service/password"
	"github.com/Vadimvill/auth-service/permission"
	"github.com/Vadimvill/auth-service/session"
	"github.com/Vadimvill/auth-service/token"
)

// Engine is the authentication core. All methods are safe for
// concurrent use; the engine holds no per-request state.
type Engine struct {
	cfg      Config
	users    UserDirectory
	roles    RoleDirectory
	perms    PermissionDirectory
	hasher   *password.Hasher
	tokens   *token.Manager
	sessions *session.Store
	auditor  *audit.Dispatcher
	metrics  *Metrics
	closed   atomic.Bool
}

// Login verifies email and plain password and opens a session.
// Unknown emails and wrong passwords are indistinguishable to the
// caller; both return ErrUnauthenticated. An inactive account returns
// ErrForbidden and no session is written.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		e.loginFailed(ctx, "", ErrUnauthenticated)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("login: lookup user: %w", err)
	}

	ok, err := e.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("login: verify password: %w", err)
	}
	if !ok {
		e.loginFailed(ctx, user.ID, ErrUnauthenticated)
		return nil, ErrUnauthenticated
	}

	if !user.IsActive {
		e.loginFailed(ctx, user.ID, ErrForbidden)
		return nil, ErrForbidden
	}

	perms, err := e.ResolvePermissions(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}

	access, err := e.tokens.Issue(user.ID, user.RoleID, perms.Names())
	if err != nil {
		return nil, err
	}

	refresh, err := e.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.metrics.Inc(MetricSessionCreated)
	e.emit(ctx, audit.ActionLogin, user.ID, true, nil, nil)

	now := time.Now()
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Claims: &Claims{
			UserID:      user.ID,
			RoleID:      user.RoleID,
			Permissions: perms,
			IssuedAt:    now,
			ExpiresAt:   now.Add(e.tokens.AccessTTL()),
		},
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// session store is the sole authority: credentials are not rechecked,
// but the account must still exist and be active. The refresh token
// itself stays valid until logout or TTL expiry.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	userID, err := e.sessions.Resolve(ctx, refreshToken)
	if errors.Is(err, session.ErrSessionNotFound) {
		e.refreshFailed(ctx, "")
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}

	user, err := e.users.UserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		e.refreshFailed(ctx, userID)
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("refresh: lookup user: %w", err)
	}
	if !user.IsActive {
		// Deactivation after login cuts the session off here.
		e.refreshFailed(ctx, userID)
		return "", ErrUnauthenticated
	}

	perms, err := e.ResolvePermissions(ctx, user.RoleID)
	if err != nil {
		return "", err
	}
	access, err := e.tokens.Issue(user.ID, user.RoleID, perms.Names())
	if err != nil {
		return "", err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, audit.ActionRefresh, user.ID, true, nil, nil)
	return access, nil
}

// Logout revokes userID's refresh session. Logging out a user with no
// session succeeds; outstanding access tokens stay valid until their
// expiry.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.sessions.Revoke(ctx, userID); err != nil {
		return err
	}
	e.metrics.Inc(MetricLogout)
	e.metrics.Inc(MetricSessionRevoked)
	e.emit(ctx, audit.ActionLogout, userID, true, nil, nil)
	return nil
}

// Validate verifies an access token and returns its claims. Every
// failure mode, missing, expired, forged or garbled, collapses into
// ErrUnauthenticated.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*Claims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()

	parsed, err := e.tokens.Parse(accessToken)
	if err != nil {
		e.metrics.Inc(MetricValidateFailure)
		e.emit(ctx, audit.ActionValidate, "", false, ErrUnauthenticated, nil)
		return nil, ErrUnauthenticated
	}

	e.metrics.Inc(MetricValidateSuccess)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	claims := &Claims{
		UserID:      parsed.Subject,
		RoleID:      parsed.RoleID,
		Permissions: permission.NewSet(parsed.Permissions...),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}

// Require checks that claims carry the named permission. Nil claims
// are an authentication failure, a missing permission an
// authorization one.
func (e *Engine) Require(ctx context.Context, claims *Claims, permissionName string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if claims == nil {
		return ErrUnauthenticated
	}
	if !claims.Permissions.Has(permissionName) {
		e.metrics.Inc(MetricPermissionDenied)
		e.emit(ctx, audit.ActionPermission, claims.UserID, false, ErrForbidden,
			map[string]string{"permission": permissionName})
		return ErrForbidden
	}
	return nil
}

// ResolvePermissions returns the permission names granted to roleID,
// in grant-creation order. A role that does not exist is ErrNotFound,
// never an empty set.
func (e *Engine) ResolvePermissions(ctx context.Context, roleID string) (*permission.Set, error) {
	names, err := e.perms.PermissionsByRole(ctx, roleID)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}
	return permission.NewSet(names...), nil
}

// Ping reports whether the session backend is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.sessions.Ping(ctx)
}

// Metrics exposes the engine's counters for exporters.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// MetricsSnapshot copies the current counter and histogram values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot { return e.metrics.Snapshot() }

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 { return e.auditor.Dropped() }

// AccessTTL returns the configured access token lifetime.
func (e *Engine) AccessTTL() time.Duration { return e.tokens.AccessTTL() }

// Close drains the audit dispatcher and marks the engine unusable.
func (e *Engine) Close() {
	if e.closed.CompareAndSwap(false, true) {
		e.auditor.Close()
	}
}

func (e *Engine) ready() error {
	if e == nil {
		return ErrEngineClosed
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

func (e *Engine) loginFailed(ctx context.Context, userID string, cause error) {
	e.metrics.Inc(MetricLoginFailure)
	e.emit(ctx, audit.ActionLogin, userID, false, cause, nil)
}

func (e *Engine) refreshFailed(ctx context.Context, userID string) {
	e.metrics.Inc(MetricRefreshFailure)
	e.emit(ctx, audit.ActionRefresh, userID, false, ErrUnauthenticated, nil)
}

func (e *Engine) emit(ctx context.Context, action, userID string, success bool, cause error, detail map[string]string) {
	if e.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp: time.Now(),
		Action:    action,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Detail:    detail,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	e.auditor.Emit(ctx, event)
}
