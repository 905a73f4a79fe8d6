package goRevoke

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/MrEthical07/goRevoke/internal/audit"
	"github.com/MrEthical07/goRevoke/internal/flows"
	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/password"
	"github.com/MrEthical07/goRevoke/revocation"
	"github.com/redis/go-redis/v9"
)

// Engine defines a public type used by goRevoke APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	redis        *redis.Client
	jwtManager   *jwt.Manager
	store        *revocation.Store
	flows        flows.Service
	subjects     SubjectProvider
	passwordHash *password.Argon2
	metrics      *Metrics
	audit        *audit.Dispatcher

	// test hook
	clock func() time.Time
}

func wrapUnavailable(err error) error {
	if err == nil {
		return ErrRevocationUnavailable
	}
	if errors.Is(err, revocation.ErrRedisUnavailable) {
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return err
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Health describes the health operation and its observable behavior.
//
// Health may return an error when input validation, dependency calls, or security checks fail.
// Health does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.store == nil {
		return HealthStatus{}
	}
	latency, err := e.store.Ping(ctx)
	if err != nil {
		e.metricInc(MetricRedisUnavailable)
		return HealthStatus{}
	}
	return HealthStatus{
		RedisAvailable: true,
		RedisLatency:   latency,
	}
}

// EstimateRevokedTokens describes the estimaterevokedtokens operation and its observable behavior.
//
// EstimateRevokedTokens may return an error when input validation, dependency calls, or security checks fail.
// EstimateRevokedTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EstimateRevokedTokens(ctx context.Context) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	return e.store.EstimateEntries(ctx)
}

// HashPassword describes the hashpassword operation and its observable behavior.
//
// HashPassword may return an error when input validation, dependency calls, or security checks fail.
// HashPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil || e.passwordHash == nil {
		return "", ErrEngineNotReady
	}
	return e.passwordHash.Hash(plaintext)
}

// VerifyPassword describes the verifypassword operation and its observable behavior.
//
// VerifyPassword may return an error when input validation, dependency calls, or security checks fail.
// VerifyPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyPassword(plaintext, encodedHash string) (bool, error) {
	if e == nil || e.passwordHash == nil {
		return false, ErrEngineNotReady
	}
	return e.passwordHash.Verify(plaintext, encodedHash)
}

func (e *Engine) checkPasswordPolicy(password string) error {
	if len(password) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}

	hasLetter := false
	hasDigit := false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordPolicy
	}
	return nil
}
