// Package internaldefs holds the metric identifiers and definitions shared
// between the core counters and the exporters. It exists so exporters can be
// imported on their own without pulling the root package in.
package internaldefs

// MetricID indexes the fixed counter table. IDs are dense and stable; adding
// a counter appends, never reorders.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricOAuthSuccess
	MetricOAuthFailure
	MetricValidateSuccess
	MetricValidateFailure
	MetricTokenRevokedRejected
	MetricRotateSuccess
	MetricRotateFailure
	MetricRotateConflict
	MetricLogoutSuccess
	MetricLogoutNoop
	MetricCrossTenantDenied
	MetricMissingTenantClaim
	MetricSessionsSwept

	MetricIDCount
)

// CounterDef names a counter for export.
type CounterDef struct {
	Name string
	Help string
}

// CounterDefs is indexed by MetricID.
var CounterDefs = [MetricIDCount]CounterDef{
	MetricLoginSuccess:         {"tenantauth_login_success_total", "Successful direct logins."},
	MetricLoginFailure:         {"tenantauth_login_failure_total", "Failed direct logins."},
	MetricOAuthSuccess:         {"tenantauth_oauth_success_total", "Successful federated logins."},
	MetricOAuthFailure:         {"tenantauth_oauth_failure_total", "Failed federated logins."},
	MetricValidateSuccess:      {"tenantauth_validate_success_total", "Access tokens that passed validation."},
	MetricValidateFailure:      {"tenantauth_validate_failure_total", "Access tokens rejected by validation."},
	MetricTokenRevokedRejected: {"tenantauth_token_revoked_total", "Tokens rejected because they were revoked."},
	MetricRotateSuccess:        {"tenantauth_rotate_success_total", "Successful refresh rotations."},
	MetricRotateFailure:        {"tenantauth_rotate_failure_total", "Failed refresh rotations."},
	MetricRotateConflict:       {"tenantauth_rotate_conflict_total", "Rotations lost to a concurrent rotation."},
	MetricLogoutSuccess:        {"tenantauth_logout_success_total", "Logouts that removed a live session."},
	MetricLogoutNoop:           {"tenantauth_logout_noop_total", "Logouts against already-absent sessions."},
	MetricCrossTenantDenied:    {"tenantauth_cross_tenant_denied_total", "Authorization denials across tenant boundaries."},
	MetricMissingTenantClaim:   {"tenantauth_missing_tenant_claim_total", "Tokens rejected for carrying no tenant claim."},
	MetricSessionsSwept:        {"tenantauth_sessions_swept_total", "Expired entries removed by sweeps."},
}

// ValidateLatencyName is the exported name of the validation histogram.
const ValidateLatencyName = "tenantauth_validate_duration_seconds"

// HistogramBounds are the upper bucket bounds, in seconds, of the validation
// latency histogram. An implicit +Inf bucket follows the last bound.
var HistogramBounds = [...]float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1}

// NumHistogramBuckets includes the +Inf bucket.
const NumHistogramBuckets = len(HistogramBounds) + 1

// Snapshot is a consistent-enough copy of all counters, taken with atomic
// loads. Exporters consume snapshots so they never touch hot counters twice.
type Snapshot struct {
	Counters [MetricIDCount]uint64

	// ValidateLatency holds per-bucket observation counts, +Inf last.
	ValidateLatency [NumHistogramBuckets]uint64
	// ValidateLatencySum is the total observed seconds.
	ValidateLatencySum float64
	// ValidateLatencyCount is the total number of observations.
	ValidateLatencyCount uint64
}

// CumulativeBuckets converts per-bucket counts into the cumulative form the
// Prometheus exposition format requires.
func CumulativeBuckets(buckets [NumHistogramBuckets]uint64) [NumHistogramBuckets]uint64 {
	var out [NumHistogramBuckets]uint64
	var sum uint64
	for i, v := range buckets {
		sum += v
		out[i] = sum
	}
	return out
}
