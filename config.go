package goTenantAuth

import (
	"errors"
	"time"

	"github.com/MrEthical07/goTenantAuth/token"
)

// Config is the full configuration surface of the authority. Zero values
// are filled in from defaultConfig by the builder, so callers only set
// what they need to change.
type Config struct {
	Token      TokenConfig
	Session    SessionConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// TokenConfig controls signing, lifetime and verification of both token kinds.
type TokenConfig struct {
	// AccessTTL is the access token lifetime. Default 15m.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime. Default 168h.
	RefreshTTL time.Duration

	// SigningMethod selects token.MethodHS256 or token.MethodEd25519.
	SigningMethod token.SigningMethod

	// AccessSecret and RefreshSecret hold the HMAC secrets for HS256,
	// or the Ed25519 private keys (PEM or raw seed) for Ed25519.
	// The two kinds must never share signing material.
	AccessSecret  []byte
	RefreshSecret []byte

	// AccessPublicKey and RefreshPublicKey are only consulted for
	// Ed25519 verify-only deployments.
	AccessPublicKey  []byte
	RefreshPublicKey []byte

	// Issuer and Audience are enforced on every verification when set.
	Issuer   string
	Audience string

	// Leeway is the clock-skew tolerance applied to time claims.
	// Capped at 2 minutes.
	Leeway time.Duration
}

// SessionConfig controls the session store.
type SessionConfig struct {
	// TTL is the fixed session lifetime, stamped at creation and never
	// extended by reads or rotations. Default 24h.
	TTL time.Duration

	// RedisPrefix namespaces all session keys. Default "ts".
	RedisPrefix string
}

// RevocationConfig controls the revocation store.
type RevocationConfig struct {
	// RedisPrefix namespaces all revocation keys. Default "trv".
	RedisPrefix string
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	// Enabled turns audit emission on. Without a sink events go to NoOpSink.
	Enabled bool

	// BufferSize is the dispatcher queue length. Default 1024.
	BufferSize int
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	// Enabled turns metric recording on. Disabled recording is a no-op
	// with near-zero cost.
	Enabled bool

	// EnableLatencyHistograms records validation latency buckets.
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    168 * time.Hour,
			SigningMethod: token.MethodHS256,
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			RedisPrefix: "ts",
		},
		Revocation: RevocationConfig{
			RedisPrefix: "trv",
		},
		Audit: AuditConfig{
			BufferSize: 1024,
		},
	}
}

// Validate checks the configuration for internal consistency. It is called
// by the builder before anything is constructed, so a bad config never
// produces a half-built authority.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("config: Token.AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("config: Token.RefreshTTL must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("config: Token.RefreshTTL must not be shorter than Token.AccessTTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("config: Token.Leeway must be between 0 and 2m")
	}

	switch c.Token.SigningMethod {
	case token.MethodHS256:
		if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
			return errors.New("config: HS256 requires Token.AccessSecret and Token.RefreshSecret")
		}
	case token.MethodEd25519:
		if len(c.Token.AccessSecret) == 0 && len(c.Token.AccessPublicKey) == 0 {
			return errors.New("config: Ed25519 requires an access key")
		}
		if len(c.Token.RefreshSecret) == 0 && len(c.Token.RefreshPublicKey) == 0 {
			return errors.New("config: Ed25519 requires a refresh key")
		}
	default:
		return errors.New("config: unknown Token.SigningMethod")
	}

	if c.Session.TTL <= 0 {
		return errors.New("config: Session.TTL must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("config: Session.RedisPrefix must not be empty")
	}
	if c.Revocation.RedisPrefix == "" {
		return errors.New("config: Revocation.RedisPrefix must not be empty")
	}
	if c.Audit.BufferSize <= 0 {
		return errors.New("config: Audit.BufferSize must be positive")
	}

	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.Token.AccessSecret = cloneBytes(c.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(c.Token.RefreshSecret)
	out.Token.AccessPublicKey = cloneBytes(c.Token.AccessPublicKey)
	out.Token.RefreshPublicKey = cloneBytes(c.Token.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
