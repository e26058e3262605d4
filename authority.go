package goTenantAuth

import (
	"errors"
	"time"

	"github.com/MrEthical07/goTenantAuth/revocation"
	"github.com/MrEthical07/goTenantAuth/session"
	"github.com/MrEthical07/goTenantAuth/token"
)

// Authority is the orchestrating facade. One instance serves a process for
// its whole lifetime; every method is safe for concurrent use.
type Authority struct {
	config Config

	codec       *token.Codec
	sessions    session.Store
	revocations revocation.Store
	guard       *TenantGuard

	audit   *auditDispatcher
	metrics *metrics
	clock   func() time.Time
}

// Guard returns the tenant guard bound to this authority's codec.
func (a *Authority) Guard() *TenantGuard {
	return a.guard
}

// MetricsSnapshot copies the current counter values. Cheap enough to call
// from a scrape handler.
func (a *Authority) MetricsSnapshot() MetricsSnapshot {
	return a.metrics.snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher queue was full.
func (a *Authority) AuditDropped() uint64 {
	return a.audit.Dropped()
}

// Close drains the audit queue. The authority must not be used afterwards.
func (a *Authority) Close() {
	a.audit.Close()
}

func (a *Authority) emit(ev AuditEvent) {
	if !a.config.Audit.Enabled {
		return
	}
	a.audit.emit(ev)
}

// mapTokenErr folds the token package sentinels into the root ones so callers
// only ever match against this package's errors.
func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrWrongKind):
		return ErrWrongTokenKind
	default:
		return ErrTokenMalformed
	}
}

// mapSessionErr folds the session store sentinels likewise.
func mapSessionErr(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrUnavailable):
		return ErrStoreUnavailable
	default:
		return err
	}
}
