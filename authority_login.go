package goTenantAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/goTenantAuth/internal"
	"github.com/MrEthical07/goTenantAuth/session"
)

// Login creates a session for an already-authenticated subject and issues its
// first token pair. Credential verification happens upstream; this is the
// step that turns a verified identity into tokens.
func (a *Authority) Login(ctx context.Context, subjectID, tenantID string, metadata map[string]string) (*LoginResult, error) {
	if subjectID == "" {
		return nil, errors.New("login: subject id required")
	}
	if tenantID == "" {
		return nil, errors.New("login: tenant id required")
	}
	return a.createSession(ctx, subjectID, tenantID, metadata, AuditLogin, MetricLoginSuccess, MetricLoginFailure)
}

// CompleteOAuth turns a verified federated identity into a session. The
// subject becomes "<provider>:<external_id>", so the same person arriving via
// the same provider always maps to the same subject.
func (a *Authority) CompleteOAuth(ctx context.Context, tenantID string, identity ExternalIdentity) (*LoginResult, error) {
	if identity.Provider == "" || identity.ExternalID == "" {
		return nil, ErrInvalidExternalIdentity
	}
	if tenantID == "" {
		return nil, errors.New("oauth: tenant id required")
	}

	subjectID := identity.Provider + ":" + identity.ExternalID

	metadata := map[string]string{
		"auth_method":    "oauth",
		"oauth_provider": identity.Provider,
	}
	if identity.Email != "" {
		metadata["oauth_email"] = identity.Email
	}
	if identity.Name != "" {
		metadata["oauth_name"] = identity.Name
	}
	for k, v := range identity.Profile {
		metadata["oauth_"+k] = v
	}

	return a.createSession(ctx, subjectID, tenantID, metadata, AuditOAuthLogin, MetricOAuthSuccess, MetricOAuthFailure)
}

func (a *Authority) createSession(ctx context.Context, subjectID, tenantID string, metadata map[string]string, event AuditEventType, successID, failureID MetricID) (*LoginResult, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		a.metrics.inc(failureID)
		return nil, err
	}
	sessionID := sid.String()

	pair, err := a.codec.IssuePair(subjectID, tenantID, map[string]string{"sid": sessionID})
	if err != nil {
		a.metrics.inc(failureID)
		return nil, err
	}

	now := a.clock()
	sess := &session.Session{
		SessionID:      sessionID,
		SubjectID:      subjectID,
		TenantID:       tenantID,
		AccessToken:    pair.AccessToken,
		RefreshToken:   pair.RefreshToken,
		RefreshID:      pair.RefreshID,
		Metadata:       metadata,
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
		ExpiresAt:      now.Add(a.config.Session.TTL).Unix(),
	}

	if err := a.sessions.Save(ctx, sess); err != nil {
		a.metrics.inc(failureID)
		a.emit(AuditEvent{
			Type: event, Timestamp: now,
			SubjectID: subjectID, TenantID: tenantID, SessionID: sessionID,
			IP: clientIP(ctx), UserAgent: userAgent(ctx),
			Success: false, Err: err.Error(),
		})
		return nil, mapSessionErr(err)
	}

	a.metrics.inc(successID)
	a.emit(AuditEvent{
		Type: event, Timestamp: now,
		SubjectID: subjectID, TenantID: tenantID, SessionID: sessionID,
		IP: clientIP(ctx), UserAgent: userAgent(ctx),
		Success: true,
	})

	return &LoginResult{
		SessionID:    sessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(a.config.Token.AccessTTL.Seconds()),
	}, nil
}
