package goTenantAuth

import "context"

// TenantGuard enforces the tenant boundary on validated tokens. There is no
// bypass: a token without a tenant claim is rejected outright, and a tenant
// mismatch is always a denial, whatever the subject is.
type TenantGuard struct {
	authority *Authority
}

// ExtractTenant validates the access token and returns its tenant claim.
func (g *TenantGuard) ExtractTenant(ctx context.Context, accessToken string) (string, error) {
	tc, err := g.SessionContext(ctx, accessToken)
	if err != nil {
		return "", err
	}
	return tc.TenantID, nil
}

// SessionContext validates the access token and returns the identity it
// carries. Fails with ErrMissingTenantClaim for tokens minted without a
// tenant.
func (g *TenantGuard) SessionContext(ctx context.Context, accessToken string) (*TenantContext, error) {
	if g == nil || g.authority == nil {
		return nil, ErrAuthorityNotReady
	}
	claims, err := g.authority.Validate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if claims.TenantID == "" {
		g.authority.metrics.inc(MetricMissingTenantClaim)
		return nil, ErrMissingTenantClaim
	}
	return &TenantContext{
		SubjectID: claims.SubjectID,
		TenantID:  claims.TenantID,
		SessionID: claims.Extra["sid"],
	}, nil
}

// Authorize validates the access token and admits it only when its tenant
// claim matches the resource's tenant exactly. Every denial is audited with
// both tenants so cross-tenant probing is visible.
func (g *TenantGuard) Authorize(ctx context.Context, accessToken, resourceTenantID string) (*TenantContext, error) {
	tc, err := g.SessionContext(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if resourceTenantID == "" || tc.TenantID != resourceTenantID {
		a := g.authority
		a.metrics.inc(MetricCrossTenantDenied)
		a.emit(AuditEvent{
			Type: AuditCrossTenantDenied, Timestamp: a.clock(),
			SubjectID: tc.SubjectID, TenantID: tc.TenantID, SessionID: tc.SessionID,
			ResourceTenant: resourceTenantID,
			IP:             clientIP(ctx), UserAgent: userAgent(ctx),
			Success: false, Err: ErrCrossTenantAccess.Error(),
		})
		return nil, ErrCrossTenantAccess
	}
	return tc, nil
}
