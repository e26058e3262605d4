package goTenantAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/goTenantAuth/session"
)

// Logout revokes the session's current pair and removes the session.
// Idempotent: the first call reports true, repeats report false with no
// error, and an absent session is never a failure.
func (a *Authority) Logout(ctx context.Context, sessionID string) (bool, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			a.metrics.inc(MetricLogoutNoop)
			return false, nil
		}
		return false, mapSessionErr(err)
	}

	now := a.clock()
	if err := a.revocations.Revoke(ctx, sess.AccessToken, now.Add(a.config.Token.AccessTTL)); err != nil {
		return false, a.mapRevocationErr(err)
	}
	if err := a.revocations.Revoke(ctx, sess.RefreshID, now.Add(a.config.Token.RefreshTTL)); err != nil {
		return false, a.mapRevocationErr(err)
	}

	deleted, err := a.sessions.Delete(ctx, sessionID)
	if err != nil {
		return false, mapSessionErr(err)
	}

	// A concurrent logout may have deleted first; the tokens are revoked
	// either way, so both callers report honestly.
	if deleted {
		a.metrics.inc(MetricLogoutSuccess)
	} else {
		a.metrics.inc(MetricLogoutNoop)
	}

	a.emit(AuditEvent{
		Type: AuditLogout, Timestamp: now,
		SubjectID: sess.SubjectID, TenantID: sess.TenantID, SessionID: sessionID,
		IP: clientIP(ctx), UserAgent: userAgent(ctx),
		Success: true,
	})
	return deleted, nil
}
