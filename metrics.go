package goTenantAuth

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goTenantAuth/metrics/export/internaldefs"
)

// MetricID re-exports the counter index type.
type MetricID = internaldefs.MetricID

// Counter identifiers, re-exported for callers reading snapshots.
const (
	MetricLoginSuccess         = internaldefs.MetricLoginSuccess
	MetricLoginFailure         = internaldefs.MetricLoginFailure
	MetricOAuthSuccess         = internaldefs.MetricOAuthSuccess
	MetricOAuthFailure         = internaldefs.MetricOAuthFailure
	MetricValidateSuccess      = internaldefs.MetricValidateSuccess
	MetricValidateFailure      = internaldefs.MetricValidateFailure
	MetricTokenRevokedRejected = internaldefs.MetricTokenRevokedRejected
	MetricRotateSuccess        = internaldefs.MetricRotateSuccess
	MetricRotateFailure        = internaldefs.MetricRotateFailure
	MetricRotateConflict       = internaldefs.MetricRotateConflict
	MetricLogoutSuccess        = internaldefs.MetricLogoutSuccess
	MetricLogoutNoop           = internaldefs.MetricLogoutNoop
	MetricCrossTenantDenied    = internaldefs.MetricCrossTenantDenied
	MetricMissingTenantClaim   = internaldefs.MetricMissingTenantClaim
	MetricSessionsSwept        = internaldefs.MetricSessionsSwept
)

// MetricsSnapshot is the exported snapshot type.
type MetricsSnapshot = internaldefs.Snapshot

// paddedCounter keeps each hot counter on its own cache line so concurrent
// increments of different counters never false-share.
type paddedCounter struct {
	v atomic.Uint64
	_ [56]byte
}

// metrics is the lock-free in-process recorder. All methods are safe for
// concurrent use; a disabled recorder short-circuits before any atomic op.
type metrics struct {
	enabled   bool
	histogram bool

	counters [internaldefs.MetricIDCount]paddedCounter

	latencyBuckets [internaldefs.NumHistogramBuckets]atomic.Uint64
	latencySumBits atomic.Uint64
	latencyCount   atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *metrics {
	return &metrics{
		enabled:   cfg.Enabled,
		histogram: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *metrics) inc(id MetricID) {
	if !m.enabled {
		return
	}
	m.counters[id].v.Add(1)
}

func (m *metrics) add(id MetricID, n uint64) {
	if !m.enabled || n == 0 {
		return
	}
	m.counters[id].v.Add(n)
}

func (m *metrics) observeValidateLatency(d time.Duration) {
	if !m.histogram {
		return
	}

	secs := d.Seconds()
	idx := len(internaldefs.HistogramBounds)
	for i, bound := range internaldefs.HistogramBounds {
		if secs <= bound {
			idx = i
			break
		}
	}
	m.latencyBuckets[idx].Add(1)
	m.latencyCount.Add(1)

	// CAS loop for the float sum; contention here is bounded by validate QPS.
	for {
		old := m.latencySumBits.Load()
		next := math.Float64bits(math.Float64frombits(old) + secs)
		if m.latencySumBits.CompareAndSwap(old, next) {
			return
		}
	}
}

func (m *metrics) snapshot() MetricsSnapshot {
	var s MetricsSnapshot
	if !m.enabled {
		return s
	}
	for i := range m.counters {
		s.Counters[i] = m.counters[i].v.Load()
	}
	for i := range m.latencyBuckets {
		s.ValidateLatency[i] = m.latencyBuckets[i].Load()
	}
	s.ValidateLatencySum = math.Float64frombits(m.latencySumBits.Load())
	s.ValidateLatencyCount = m.latencyCount.Load()
	return s
}
