package goTenantAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goTenantAuth/revocation"
)

// Validate is the request-path check for access tokens: revocation first,
// then signature, expiry and kind. Malformed and revoked tokens come back
// with the same shaped errors regardless of which check tripped first inside
// the codec, so callers can't probe for structure.
func (a *Authority) Validate(ctx context.Context, accessToken string) (*Claims, error) {
	start := time.Now()
	defer func() {
		a.metrics.observeValidateLatency(time.Since(start))
	}()

	revoked, err := a.revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		a.metrics.inc(MetricValidateFailure)
		if errors.Is(err, revocation.ErrUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}
	if revoked {
		a.metrics.inc(MetricTokenRevokedRejected)
		a.metrics.inc(MetricValidateFailure)
		a.emit(AuditEvent{
			Type: AuditTokenRevoked, Timestamp: a.clock(),
			IP: clientIP(ctx), UserAgent: userAgent(ctx),
			Success: false, Err: ErrTokenRevoked.Error(),
		})
		return nil, ErrTokenRevoked
	}

	claims, err := a.codec.VerifyAccess(accessToken)
	if err != nil {
		mapped := mapTokenErr(err)
		a.metrics.inc(MetricValidateFailure)
		a.emit(AuditEvent{
			Type: AuditValidate, Timestamp: a.clock(),
			IP: clientIP(ctx), UserAgent: userAgent(ctx),
			Success: false, Err: mapped.Error(),
		})
		return nil, mapped
	}

	a.metrics.inc(MetricValidateSuccess)
	return claims, nil
}
