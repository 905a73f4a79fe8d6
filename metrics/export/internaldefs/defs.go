package internaldefs

import (
	goRevoke "github.com/MrEthical07/goRevoke"
)

// CounterDef defines a public type used by goRevoke APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goRevoke.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goRevoke APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goRevoke.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the revocation engine.
var CounterDefs = []CounterDef{
	{ID: goRevoke.MetricLoginSuccess, Name: "gorevoke_login_success_total", Help: "Successful login attempts."},
	{ID: goRevoke.MetricLoginFailure, Name: "gorevoke_login_failure_total", Help: "Failed login attempts."},
	{ID: goRevoke.MetricRegisterSuccess, Name: "gorevoke_register_success_total", Help: "Successful registrations."},
	{ID: goRevoke.MetricRegisterDuplicate, Name: "gorevoke_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: goRevoke.MetricRefreshSuccess, Name: "gorevoke_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goRevoke.MetricRefreshFailure, Name: "gorevoke_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goRevoke.MetricRefreshRevoked, Name: "gorevoke_refresh_revoked_total", Help: "Refresh attempts with a blacklisted refresh token."},
	{ID: goRevoke.MetricValidateSuccess, Name: "gorevoke_validate_success_total", Help: "Successful access token validations."},
	{ID: goRevoke.MetricValidateRejected, Name: "gorevoke_validate_rejected_total", Help: "Access tokens rejected as malformed, expired, or of the wrong kind."},
	{ID: goRevoke.MetricValidateRevoked, Name: "gorevoke_validate_revoked_total", Help: "Access tokens rejected because they appear on the blacklist."},
	{ID: goRevoke.MetricLogout, Name: "gorevoke_logout_total", Help: "Single-session logout operations."},
	{ID: goRevoke.MetricLogoutAll, Name: "gorevoke_logout_all_total", Help: "Logout-all operations."},
	{ID: goRevoke.MetricInvalidateSuccess, Name: "gorevoke_invalidate_success_total", Help: "Explicit token invalidations."},
	{ID: goRevoke.MetricInvalidateDuplicate, Name: "gorevoke_invalidate_duplicate_total", Help: "Invalidation attempts for already-blacklisted tokens."},
	{ID: goRevoke.MetricInvalidateRejected, Name: "gorevoke_invalidate_rejected_total", Help: "Invalidation attempts rejected during verification."},
	{ID: goRevoke.MetricCheckToken, Name: "gorevoke_check_token_total", Help: "Blacklist lookups."},
	{ID: goRevoke.MetricCheckTokenRevoked, Name: "gorevoke_check_token_revoked_total", Help: "Blacklist lookups that found a revoked token."},
	{ID: goRevoke.MetricEntriesReaped, Name: "gorevoke_entries_reaped_total", Help: "Expired blacklist entries removed by the reaper."},
	{ID: goRevoke.MetricRedisUnavailable, Name: "gorevoke_redis_unavailable_total", Help: "Operations that failed because Redis was unreachable."},
}

// HistogramDefs is an exported constant or variable used by the revocation engine.
var HistogramDefs = []HistogramDef{
	{ID: goRevoke.MetricValidateLatency, Name: "gorevoke_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the revocation engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the revocation engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
