package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-process [Store] for tests and single-instance
// deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]int64
}

// NewMemory creates an empty in-process revocation store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]int64),
	}
}

// Revoke records the credential. Idempotent: re-revoking keeps the later of
// the two expiries so an entry never disappears early.
func (m *Memory) Revoke(_ context.Context, key string, expiresAt time.Time) error {
	d := digest(key)
	exp := expiresAt.Unix()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[d]; !ok || exp > existing {
		m.entries[d] = exp
	}
	return nil
}

// IsRevoked reports whether the credential has a live revocation entry.
func (m *Memory) IsRevoked(_ context.Context, key string) (bool, error) {
	d := digest(key)

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[d]
	return ok, nil
}

// SweepExpired purges entries whose credential expiry has passed.
func (m *Memory) SweepExpired(_ context.Context, now time.Time) (int, error) {
	nowUnix := now.Unix()

	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for d, exp := range m.entries {
		if nowUnix > exp {
			delete(m.entries, d)
			purged++
		}
	}
	return purged, nil
}
