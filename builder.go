package authservice

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/Vadimvill/auth-service/internal/audit"
	"github.com/Vadimvill/auth-service/password"
	"github.com/Vadimvill/auth-service/session"
	"github.com/Vadimvill/auth-service/token"
)

// Builder assembles an Engine. Collaborators are handed in through
// With calls; Build validates the combination once and the resulting
// Engine is immutable.
type Builder struct {
	cfg       Config
	cfgSet    bool
	redis     redis.UniversalClient
	users     UserDirectory
	roles     RoleDirectory
	perms     PermissionDirectory
	auditSink AuditSink
}

// New returns an empty Builder. Without WithConfig, Build uses
// DefaultConfig, which still requires a JWT secret and will fail.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg.clone()
	b.cfgSet = true
	return b
}

// WithRedis sets the client backing the refresh session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserDirectory(d UserDirectory) *Builder {
	b.users = d
	return b
}

func (b *Builder) WithRoleDirectory(d RoleDirectory) *Builder {
	b.roles = d
	return b
}

func (b *Builder) WithPermissionDirectory(d PermissionDirectory) *Builder {
	b.perms = d
	return b
}

// WithAuditSink sets the destination for audit events. Events are
// only emitted when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and collaborators and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.cfg
	if !b.cfgSet {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("builder: redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("builder: user directory is required")
	}
	if b.roles == nil {
		return nil, errors.New("builder: role directory is required")
	}
	if b.perms == nil {
		return nil, errors.New("builder: permission directory is required")
	}

	hasher, err := password.NewHasher(hasherParams(cfg.Password))
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		Secret:    cfg.JWT.Secret,
		Algorithm: cfg.JWT.Algorithm,
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Leeway:    cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(b.redis, session.Config{
		Prefix: cfg.Session.KeyPrefix,
		TTL:    cfg.Session.TTL,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		users:    b.users,
		roles:    b.roles,
		perms:    b.perms,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		auditor: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}, nil
}

func hasherParams(cfg PasswordConfig) password.Params {
	if cfg == (PasswordConfig{}) {
		return password.DefaultParams()
	}
	return password.Params{
		MemoryKB:    cfg.MemoryKB,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	}
}
