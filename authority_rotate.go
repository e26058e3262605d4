package goTenantAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/goTenantAuth/revocation"
	"github.com/MrEthical07/goTenantAuth/session"
)

// Rotate exchanges a live refresh token for a fresh pair. The old pair is
// revoked before the session record is updated, so a crash mid-rotation can
// only strand a dead session, never leave a stale pair usable.
//
// Concurrent rotations of the same session have exactly one winner: the
// session store swaps the pair only if the presented refresh token is still
// the current one. Losers, like any reuse of an already-rotated token, get
// ErrTokenRevoked.
func (a *Authority) Rotate(ctx context.Context, sessionID, refreshToken string) (*RotateResult, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		a.metrics.inc(MetricRotateFailure)
		return nil, mapSessionErr(err)
	}

	claims, err := a.codec.VerifyRefresh(refreshToken)
	if err != nil {
		mapped := mapTokenErr(err)
		a.metrics.inc(MetricRotateFailure)
		a.emitRotate(ctx, sess, false, mapped.Error())
		return nil, mapped
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		a.metrics.inc(MetricRotateFailure)
		return nil, a.mapRevocationErr(err)
	}
	if revoked {
		a.metrics.inc(MetricTokenRevokedRejected)
		a.metrics.inc(MetricRotateFailure)
		a.emitRotate(ctx, sess, false, ErrTokenRevoked.Error())
		return nil, ErrTokenRevoked
	}

	// A refresh token only rotates the session it is bound to. Checking here
	// keeps a mismatched call from revoking the target session's live access
	// token before the store swap would have rejected it anyway.
	if claims.TokenID() != sess.RefreshID {
		a.metrics.inc(MetricRotateFailure)
		a.emitRotate(ctx, sess, false, ErrTokenRevoked.Error())
		return nil, ErrTokenRevoked
	}

	pair, err := a.codec.IssuePair(sess.SubjectID, sess.TenantID, map[string]string{"sid": sessionID})
	if err != nil {
		a.metrics.inc(MetricRotateFailure)
		return nil, err
	}

	now := a.clock()

	// Revocation before the store swap. Over-retention is fine; the entries
	// outlive the tokens by at most the configured TTL of each kind.
	if err := a.revocations.Revoke(ctx, sess.AccessToken, now.Add(a.config.Token.AccessTTL)); err != nil {
		a.metrics.inc(MetricRotateFailure)
		return nil, a.mapRevocationErr(err)
	}
	if err := a.revocations.Revoke(ctx, claims.TokenID(), now.Add(a.config.Token.RefreshTTL)); err != nil {
		a.metrics.inc(MetricRotateFailure)
		return nil, a.mapRevocationErr(err)
	}

	_, err = a.sessions.ReplaceTokens(ctx, sessionID, claims.TokenID(), session.TokenUpdate{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		RefreshID:    pair.RefreshID,
		Now:          now,
	})
	if err != nil {
		a.metrics.inc(MetricRotateFailure)
		if errors.Is(err, session.ErrTokenConflict) {
			// Lost the race. The pair issued above was never handed out;
			// revoke it anyway so it can't surface through a log or dump.
			a.revocations.Revoke(ctx, pair.AccessToken, pair.AccessExpiresAt)
			a.revocations.Revoke(ctx, pair.RefreshID, pair.RefreshExpiresAt)

			a.metrics.inc(MetricRotateConflict)
			a.emitRotate(ctx, sess, false, ErrTokenRevoked.Error())
			return nil, ErrTokenRevoked
		}
		return nil, mapSessionErr(err)
	}

	a.metrics.inc(MetricRotateSuccess)
	a.emitRotate(ctx, sess, true, "")

	return &RotateResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(a.config.Token.AccessTTL.Seconds()),
	}, nil
}

func (a *Authority) emitRotate(ctx context.Context, sess *session.Session, success bool, errMsg string) {
	a.emit(AuditEvent{
		Type: AuditRotate, Timestamp: a.clock(),
		SubjectID: sess.SubjectID, TenantID: sess.TenantID, SessionID: sess.SessionID,
		IP: clientIP(ctx), UserAgent: userAgent(ctx),
		Success: success, Err: errMsg,
	})
}

func (a *Authority) mapRevocationErr(err error) error {
	if errors.Is(err, revocation.ErrUnavailable) {
		return ErrStoreUnavailable
	}
	return err
}
