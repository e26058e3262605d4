package goTenantAuth

import "context"

// SessionInfo returns the stored session record for operators and debugging
// surfaces. The read counts as activity.
func (a *Authority) SessionInfo(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return sess, nil
}

// SessionsForSubject lists every live session a subject holds, across all of
// that subject's devices. Useful for "log out everywhere" surfaces built on
// top of Logout.
func (a *Authority) SessionsForSubject(ctx context.Context, subjectID string) ([]*SessionView, error) {
	sessions, err := a.sessions.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return sessions, nil
}
