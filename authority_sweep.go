package goTenantAuth

import "context"

// Sweep purges expired sessions and spent revocation entries. Run it from a
// periodic timer; it is never required for correctness, only for keeping the
// stores bounded.
func (a *Authority) Sweep(ctx context.Context) (int, error) {
	now := a.clock()

	sessions, err := a.sessions.SweepExpired(ctx, now)
	if err != nil {
		return sessions, mapSessionErr(err)
	}

	revocations, err := a.revocations.SweepExpired(ctx, now)
	if err != nil {
		return sessions, a.mapRevocationErr(err)
	}

	total := sessions + revocations
	a.metrics.add(MetricSessionsSwept, uint64(total))
	if total > 0 {
		a.emit(AuditEvent{
			Type: AuditSweep, Timestamp: now,
			Success: true,
		})
	}
	return total, nil
}
