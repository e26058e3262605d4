package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound marks a missing or expired session. Expired sessions are
	// indistinguishable from deleted ones to callers.
	ErrNotFound = errors.New("session not found")
	// ErrTokenConflict marks a ReplaceTokens call whose expected refresh ID
	// no longer matches the stored one: another rotation won the race.
	ErrTokenConflict = errors.New("session token conflict")
	// ErrUnavailable marks a backend failure.
	ErrUnavailable = errors.New("session store unavailable")
)

// Store is the shared session persistence contract.
//
// Implementations must be safe under concurrent readers and writers, and
// ReplaceTokens must be atomic: the stored pair is always one coherent,
// fully-issued pair, never a mix of fields from two rotations.
type Store interface {
	// Save persists a new session. The session's ExpiresAt drives the TTL.
	Save(ctx context.Context, sess *Session) error

	// Get returns the session and touches LastActivityAt. Expiry is fixed:
	// reads never extend ExpiresAt. Returns ErrNotFound after expiry.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// ReplaceTokens swaps the stored token pair iff the stored refresh ID
	// still equals expectedRefreshID. On conflict it returns
	// ErrTokenConflict and leaves the stored pair untouched.
	ReplaceTokens(ctx context.Context, sessionID, expectedRefreshID string, pair TokenUpdate) (*Session, error)

	// Delete removes a session. Reports whether it existed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// ListBySubject returns all live sessions for a subject.
	ListBySubject(ctx context.Context, subjectID string) ([]*Session, error)

	// SweepExpired purges expired records and reconciles indexes, returning
	// the number of entries removed. Intended for a periodic timer, not the
	// request path.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// TokenUpdate carries one coherent, fully-issued replacement pair.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	RefreshID    string
	Now          time.Time
}
