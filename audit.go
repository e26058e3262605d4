package goTenantAuth

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEventType enumerates the security-relevant events the authority emits.
type AuditEventType string

const (
	AuditLogin             AuditEventType = "login"
	AuditOAuthLogin        AuditEventType = "oauth_login"
	AuditValidate          AuditEventType = "validate"
	AuditRotate            AuditEventType = "rotate"
	AuditLogout            AuditEventType = "logout"
	AuditTokenRevoked      AuditEventType = "token_revoked"
	AuditCrossTenantDenied AuditEventType = "cross_tenant_denied"
	AuditSweep             AuditEventType = "sweep"
)

// AuditEvent is one security event. Raw token material never appears here;
// tokens are referenced only by session or token ID.
type AuditEvent struct {
	Type      AuditEventType `json:"type"`
	Timestamp time.Time      `json:"ts"`

	SubjectID string `json:"subject_id,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// ResourceTenant is set on cross-tenant denials: the tenant the caller
	// tried to reach, as opposed to the tenant in their token.
	ResourceTenant string `json:"resource_tenant,omitempty"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	Success bool   `json:"success"`
	Err     string `json:"err,omitempty"`
}

// AuditSink receives events from the dispatcher. Write must not block for
// long; slow sinks cause drops, not backpressure on the hot path.
type AuditSink interface {
	Write(AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Write(AuditEvent) {}

// ChannelSink forwards events to a caller-owned channel. Events are dropped
// when the channel is full.
type ChannelSink struct {
	C chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Write(ev AuditEvent) {
	select {
	case s.C <- ev:
	default:
	}
}

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

func (s *JSONWriterSink) Write(ev AuditEvent) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return
	}
	buf = append(buf, '\n')

	s.mu.Lock()
	s.w.Write(buf)
	s.mu.Unlock()
}
