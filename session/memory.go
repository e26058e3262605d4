package session

import (
	"context"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-process [Store] for tests and single-instance
// deployments. Sessions are deep-copied on the way in and out.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    func() time.Time
}

// NewMemory creates an empty in-process store. clock may be nil (time.Now).
func NewMemory(clock func() time.Time) *Memory {
	if clock == nil {
		clock = time.Now
	}
	return &Memory{
		sessions: make(map[string]*Session),
		clock:    clock,
	}
}

// Save persists a new session.
func (m *Memory) Save(_ context.Context, sess *Session) error {
	if _, err := Encode(sess); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.SessionID] = sess.Clone()
	return nil
}

// Get returns the session and touches LastActivityAt. Fixed expiry: the
// stored ExpiresAt is never extended by reads.
func (m *Memory) Get(_ context.Context, sessionID string) (*Session, error) {
	now := m.clock().Unix()

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if now > sess.ExpiresAt {
		delete(m.sessions, sessionID)
		return nil, ErrNotFound
	}

	sess.LastActivityAt = now
	return sess.Clone(), nil
}

// ReplaceTokens swaps the stored pair under the store lock, with CAS
// semantics on the stored refresh ID.
func (m *Memory) ReplaceTokens(_ context.Context, sessionID, expectedRefreshID string, pair TokenUpdate) (*Session, error) {
	now := pair.Now
	if now.IsZero() {
		now = m.clock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if now.Unix() > sess.ExpiresAt {
		delete(m.sessions, sessionID)
		return nil, ErrNotFound
	}
	if sess.RefreshID != expectedRefreshID {
		return nil, ErrTokenConflict
	}

	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.RefreshID = pair.RefreshID
	sess.LastActivityAt = now.Unix()
	return sess.Clone(), nil
}

// Delete removes a session, reporting whether it existed.
func (m *Memory) Delete(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return ok, nil
}

// ListBySubject scans all sessions. Linear, acceptable at in-process scale.
func (m *Memory) ListBySubject(_ context.Context, subjectID string) ([]*Session, error) {
	now := m.clock().Unix()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, 4)
	for _, sess := range m.sessions {
		if sess.SubjectID == subjectID && now <= sess.ExpiresAt {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

// SweepExpired purges expired sessions, returning the number removed.
func (m *Memory) SweepExpired(_ context.Context, now time.Time) (int, error) {
	nowUnix := now.Unix()

	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, sess := range m.sessions {
		if nowUnix > sess.ExpiresAt {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged, nil
}
