package session

// Session represents one authenticated principal's continuity across requests.
//
// AccessToken and RefreshToken always point at the most recently issued pair;
// the Authority guarantees any previously issued pair is already revoked
// before these fields are overwritten. RefreshID is the unique identifier of
// the current refresh token and doubles as the compare-and-swap key for
// [Store.ReplaceTokens].
type Session struct {
	SchemaVersion int    `json:"v"`
	SessionID     string `json:"session_id"`
	SubjectID     string `json:"subject_id"`
	TenantID      string `json:"tenant_id"`

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	RefreshID    string `json:"refresh_id"`

	// Metadata is an opaque bag: auth method, OAuth provider info, client
	// hints. Never interpreted by the stores.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt      int64 `json:"created_at"`
	LastActivityAt int64 `json:"last_activity_at"`

	// ExpiresAt is fixed at creation. Reads touch LastActivityAt but never
	// extend the expiry.
	ExpiresAt int64 `json:"expires_at"`
}

// Clone returns a deep copy so callers can mutate results safely.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
