package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrUnavailable marks a backend failure.
var ErrUnavailable = errors.New("revocation store unavailable")

// Store is the shared revocation contract. Revoke is idempotent; entries
// persist until SweepExpired removes them, which is safe only once the
// underlying credential has expired on its own.
type Store interface {
	// Revoke marks a credential revoked until expiresAt has passed.
	// Revoking an already-revoked credential is a no-op success.
	Revoke(ctx context.Context, key string, expiresAt time.Time) error

	// IsRevoked reports whether the credential is currently revoked.
	IsRevoked(ctx context.Context, key string) (bool, error)

	// SweepExpired purges entries whose credential is guaranteed expired,
	// returning the number purged.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// digest derives the storage key for a credential. Raw token strings never
// appear in backend keyspaces.
func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
