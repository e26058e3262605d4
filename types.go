package goTenantAuth

import (
	"github.com/MrEthical07/goTenantAuth/session"
	"github.com/MrEthical07/goTenantAuth/token"
)

// Claims is re-exported so callers never import the token package directly.
type Claims = token.Claims

// LoginResult is returned by Login and CompleteOAuth. Raw token strings are
// handed to the caller exactly once and never stored anywhere observable
// except the session record.
type LoginResult struct {
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// RotateResult is returned by Rotate. The previous pair is revoked before
// this one becomes visible.
type RotateResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ExternalIdentity carries the verified profile of a federated login.
// Provider and ExternalID are mandatory; everything else is advisory and
// lands in session metadata.
type ExternalIdentity struct {
	Provider   string
	ExternalID string
	Email      string
	Name       string
	Profile    map[string]string
}

// TenantContext is the request-scoped identity a guard hands to downstream
// handlers after a token passed tenant authorization.
type TenantContext struct {
	SubjectID string
	TenantID  string
	SessionID string
}

// SessionView is the introspection shape returned to operators. It is a
// defensive copy; mutating it has no effect on the store.
type SessionView = session.Session
