package goTenantAuth

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goTenantAuth/revocation"
	"github.com/MrEthical07/goTenantAuth/session"
	"github.com/MrEthical07/goTenantAuth/token"
)

// Builder assembles an Authority. The zero-value stores are in-memory; wire
// Redis for anything that has to survive a restart or span processes.
//
//	auth, err := goTenantAuth.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithAuditSink(sink).
//		Build()
type Builder struct {
	config    Config
	configSet bool

	redis       redis.UniversalClient
	sessions    session.Store
	revocations revocation.Store

	sink  AuditSink
	clock func() time.Time
}

func New() *Builder {
	return &Builder{}
}

// WithConfig sets the configuration. Zero-valued fields are filled from
// defaults at Build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.configSet = true
	return b
}

// WithRedis backs both the session and revocation stores with the given
// client, unless a store was set explicitly.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store.
func (b *Builder) WithSessionStore(s session.Store) *Builder {
	b.sessions = s
	return b
}

// WithRevocationStore overrides the revocation store.
func (b *Builder) WithRevocationStore(s revocation.Store) *Builder {
	b.revocations = s
	return b
}

// WithAuditSink enables audit emission into the given sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithClock injects a time source. Tests use this to step through token and
// session lifetimes without sleeping.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled turns on the in-process counters.
func (b *Builder) WithMetricsEnabled(latencyHistograms bool) *Builder {
	b.config.Metrics.Enabled = true
	b.config.Metrics.EnableLatencyHistograms = latencyHistograms
	return b
}

// Build validates the configuration and wires the authority. Nothing is
// constructed if validation fails.
func (b *Builder) Build() (*Authority, error) {
	cfg := b.mergedConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	codec, err := token.NewCodec(token.Config{
		AccessTTL:        cfg.Token.AccessTTL,
		RefreshTTL:       cfg.Token.RefreshTTL,
		SigningMethod:    cfg.Token.SigningMethod,
		AccessSecret:     cfg.Token.AccessSecret,
		RefreshSecret:    cfg.Token.RefreshSecret,
		AccessPublicKey:  cfg.Token.AccessPublicKey,
		RefreshPublicKey: cfg.Token.RefreshPublicKey,
		Issuer:           cfg.Token.Issuer,
		Audience:         cfg.Token.Audience,
		Leeway:           cfg.Token.Leeway,
		Clock:            clock,
	})
	if err != nil {
		return nil, err
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis != nil {
			sessions = session.NewRedis(b.redis, cfg.Session.RedisPrefix, clock)
		} else {
			sessions = session.NewMemory(clock)
		}
	}

	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = revocation.NewRedis(b.redis, cfg.Revocation.RedisPrefix, clock)
		} else {
			revocations = revocation.NewMemory()
		}
	}

	sink := b.sink
	if sink == nil {
		sink = NoOpSink{}
	}

	a := &Authority{
		config:      cfg,
		codec:       codec,
		sessions:    sessions,
		revocations: revocations,
		audit:       newAuditDispatcher(sink, cfg.Audit.BufferSize),
		metrics:     newMetrics(cfg.Metrics),
		clock:       clock,
	}
	a.guard = &TenantGuard{authority: a}
	return a, nil
}

// mergedConfig overlays the caller's config on the defaults, so partial
// configs only need to set what they change.
func (b *Builder) mergedConfig() Config {
	cfg := b.config
	def := defaultConfig()

	if cfg.Token.AccessTTL == 0 {
		cfg.Token.AccessTTL = def.Token.AccessTTL
	}
	if cfg.Token.RefreshTTL == 0 {
		cfg.Token.RefreshTTL = def.Token.RefreshTTL
	}
	if cfg.Token.SigningMethod == "" {
		cfg.Token.SigningMethod = def.Token.SigningMethod
	}
	if cfg.Token.Leeway == 0 {
		cfg.Token.Leeway = def.Token.Leeway
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = def.Session.TTL
	}
	if cfg.Session.RedisPrefix == "" {
		cfg.Session.RedisPrefix = def.Session.RedisPrefix
	}
	if cfg.Revocation.RedisPrefix == "" {
		cfg.Revocation.RedisPrefix = def.Revocation.RedisPrefix
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = def.Audit.BufferSize
	}
	return cfg
}
