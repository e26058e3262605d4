package goTenantAuth

import "errors"

var (
	// ErrTokenMalformed marks tokens that fail structural or signature checks.
	// Not retryable; the caller must re-authenticate.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired marks tokens past their expiry. Callers holding a valid
	// refresh token should rotate; otherwise re-authenticate.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenKind marks an access token used where a refresh token was
	// expected, or vice versa. Client programming error, not retryable.
	ErrWrongTokenKind = errors.New("wrong token kind")
	// ErrTokenRevoked marks explicitly invalidated tokens. Never retryable
	// with the same token.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrMissingTenantClaim marks credentials without a tenant claim. Such a
	// token is not valid for any tenant-scoped operation.
	ErrMissingTenantClaim = errors.New("missing tenant claim")
	// ErrCrossTenantAccess marks a tenant-isolation violation: the token's
	// tenant does not match the resource's tenant. Surfaced to the audit sink
	// as a security signal.
	ErrCrossTenantAccess = errors.New("cross-tenant access denied")
	// ErrSessionNotFound marks a missing, deleted, or expired session. The
	// caller must re-authenticate.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable marks a session or revocation backend failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrAuthorityNotReady is returned by operations on a nil or unbuilt Authority.
	ErrAuthorityNotReady = errors.New("authority not initialized")
	// ErrInvalidExternalIdentity marks an OAuth completion with an unusable
	// provider profile (empty provider or external ID).
	ErrInvalidExternalIdentity = errors.New("invalid external identity")
)
