package token

import (
	"crypto/ed25519"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature scheme.
type SigningMethod string

const (
	// MethodHS256 signs tokens with HMAC-SHA256 symmetric secrets (default).
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs tokens with Ed25519 key pairs.
	MethodEd25519 SigningMethod = "ed25519"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	// KindAccess marks short-lived request credentials.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived rotation credentials.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed marks tokens failing structural or signature verification.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired marks tokens past their expiry claim.
	ErrExpired = errors.New("expired token")
	// ErrWrongKind marks a token presented as the wrong kind.
	ErrWrongKind = errors.New("wrong token kind")
)

// Config parameterizes a [Codec]. Instances are treated as immutable after
// NewCodec; secrets are cloned on construction.
//
// Access and refresh tokens are signed with distinct secrets so that an
// access-secret compromise cannot forge refresh tokens.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod SigningMethod

	// HS256: symmetric secrets. Ed25519: private keys (raw or PEM).
	AccessSecret  []byte
	RefreshSecret []byte

	// Ed25519 verification keys. Ignored for HS256.
	AccessPublicKey  []byte
	RefreshPublicKey []byte

	Issuer   string
	Audience string
	Leeway   time.Duration

	// Clock overrides the time source for issuance and verification.
	// Nil means time.Now. Tests use this to simulate expiry.
	Clock func() time.Time
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	SubjectID string            `json:"sub"`
	TenantID  string            `json:"tid,omitempty"`
	Kind      Kind              `json:"tkn"`
	Extra     map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// TokenID returns the unique identifier minted into every token. Refresh
// tokens are revoked by this ID; for access tokens it guarantees no two
// issuances are ever byte-identical.
func (c *Claims) TokenID() string {
	return c.ID
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Codec issues and verifies signed tokens. It is stateless; a single Codec
// may be shared across goroutines.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
			return nil, errors.New("hs256 requires access and refresh secrets")
		}
		if len(cfg.AccessSecret) == len(cfg.RefreshSecret) &&
			subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
			return nil, errors.New("access and refresh secrets must differ")
		}
	case MethodEd25519:
		var err error
		cfg.AccessPublicKey, err = resolveEdPublicKey(cfg.AccessSecret, cfg.AccessPublicKey)
		if err != nil {
			return nil, fmt.Errorf("access key: %w", err)
		}
		cfg.RefreshPublicKey, err = resolveEdPublicKey(cfg.RefreshSecret, cfg.RefreshPublicKey)
		if err != nil {
			return nil, fmt.Errorf("refresh key: %w", err)
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	cfg.AccessSecret = cloneBytes(cfg.AccessSecret)
	cfg.RefreshSecret = cloneBytes(cfg.RefreshSecret)
	cfg.AccessPublicKey = cloneBytes(cfg.AccessPublicKey)
	cfg.RefreshPublicKey = cloneBytes(cfg.RefreshPublicKey)

	return &Codec{config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.config.RefreshTTL }

func (c *Codec) now() time.Time {
	if c.config.Clock != nil {
		return c.config.Clock()
	}
	return time.Now()
}

// IssueAccess mints a signed access token for subjectID within tenantID.
// extra is an opaque claim bag carried verbatim; nil is allowed.
func (c *Codec) IssueAccess(subjectID, tenantID string, extra map[string]string) (string, error) {
	if subjectID == "" {
		return "", errors.New("empty subject id")
	}

	now := c.now()
	claims := Claims{
		SubjectID: subjectID,
		TenantID:  tenantID,
		Kind:      KindAccess,
		Extra:     extra,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps every issuance distinct even when two tokens for
			// the same subject are minted within one second; without it,
			// revoking a previous access token could hit its replacement.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTTL)),
			Issuer:    c.config.Issuer,
		},
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	return c.sign(claims, c.config.AccessSecret)
}

// IssueRefresh mints a signed refresh token for subjectID within tenantID.
// The returned token ID is a freshly generated unguessable identifier used
// for targeted revocation tracking.
func (c *Codec) IssueRefresh(subjectID, tenantID string) (tokenString, tokenID string, err error) {
	if subjectID == "" {
		return "", "", errors.New("empty subject id")
	}

	tokenID = uuid.NewString()
	now := c.now()
	claims := Claims{
		SubjectID: subjectID,
		TenantID:  tenantID,
		Kind:      KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.RefreshTTL)),
			Issuer:    c.config.Issuer,
		},
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	tokenString, err = c.sign(claims, c.config.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return tokenString, tokenID, nil
}

// IssuePair mints a matching access and refresh token pair.
func (c *Codec) IssuePair(subjectID, tenantID string, extra map[string]string) (Pair, error) {
	now := c.now()

	access, err := c.IssueAccess(subjectID, tenantID, extra)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshID, err := c.IssueRefresh(subjectID, tenantID)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshID:        refreshID,
		AccessExpiresAt:  now.Add(c.config.AccessTTL),
		RefreshExpiresAt: now.Add(c.config.RefreshTTL),
	}, nil
}

// VerifyAccess checks signature, expiry, and kind of an access token.
// Fails with [ErrExpired], [ErrMalformed], or [ErrWrongKind].
func (c *Codec) VerifyAccess(tokenString string) (*Claims, error) {
	return c.verify(tokenString, KindAccess, c.config.AccessSecret, c.config.AccessPublicKey)
}

// VerifyRefresh checks signature, expiry, and kind of a refresh token.
func (c *Codec) VerifyRefresh(tokenString string) (*Claims, error) {
	return c.verify(tokenString, KindRefresh, c.config.RefreshSecret, c.config.RefreshPublicKey)
}

func (c *Codec) verify(tokenString string, kind Kind, secret, public []byte) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.verifyKey(secret, public)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.SubjectID == "" {
		return nil, ErrMalformed
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}

	return claims, nil
}

func (c *Codec) sign(claims Claims, secret []byte) (string, error) {
	t := jwt.NewWithClaims(c.method(), claims)

	key, err := c.signKey(secret)
	if err != nil {
		return "", err
	}
	return t.SignedString(key)
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Codec) signKey(secret []byte) (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(secret)
	default:
		return secret, nil
	}
}

func (c *Codec) verifyKey(secret, public []byte) (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return parseEdPublicKey(public)
	default:
		return secret, nil
	}
}

// resolveEdPublicKey validates the key material for one token kind. A public
// key is derived from the private key when not given explicitly; a public key
// alone configures a verify-only codec for that kind.
func resolveEdPublicKey(private, public []byte) ([]byte, error) {
	if len(public) > 0 {
		if _, err := parseEdPublicKey(public); err != nil {
			return nil, err
		}
		if len(private) > 0 {
			if _, err := parseEdPrivateKey(private); err != nil {
				return nil, err
			}
		}
		return public, nil
	}

	priv, err := parseEdPrivateKey(private)
	if err != nil {
		return nil, err
	}
	return priv.Public().(ed25519.PublicKey), nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(key), nil
	}
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
