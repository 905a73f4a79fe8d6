package goRevoke

import (
	"context"
	"time"

	"github.com/MrEthical07/goRevoke/internal/flows"
	"github.com/MrEthical07/goRevoke/jwt"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, email, password string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	result := e.flows.Register(ctx, email, password)
	switch result.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(AuditRegister, result.SubjectID, true, nil, "", "")
		return TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
	case flows.IssueFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(AuditRegister, "", false, ErrSubjectExists, "", "")
		return TokenPair{}, ErrSubjectExists
	case flows.IssueFailurePolicy:
		e.emitAudit(AuditRegister, "", false, ErrPasswordPolicy, "", "")
		return TokenPair{}, ErrPasswordPolicy
	default:
		e.emitAudit(AuditRegister, "", false, result.Err, "", "")
		return TokenPair{}, wrapUnavailable(result.Err)
	}
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	result := e.flows.Login(ctx, email, password)
	switch result.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(AuditLogin, result.SubjectID, true, nil, "", "")
		return TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
	case flows.IssueFailureCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(AuditLogin, "", false, ErrInvalidCredentials, "", "")
		return TokenPair{}, ErrInvalidCredentials
	case flows.IssueFailureSubjectInactive:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(AuditLogin, result.SubjectID, false, ErrSubjectInactive, "", "")
		return TokenPair{}, ErrSubjectInactive
	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(AuditLogin, "", false, result.Err, "", "")
		return TokenPair{}, wrapUnavailable(result.Err)
	}
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return "", ErrTokenMissing
	}

	result := e.flows.RefreshAccess(ctx, refreshToken)
	switch result.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(AuditRefresh, result.SubjectID, true, nil, auditKind(jwt.KindRefresh), "")
		return result.AccessToken, nil
	case flows.IssueFailureRefreshExpired:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(AuditRefresh, "", false, ErrTokenExpired, auditKind(jwt.KindRefresh), "")
		return "", ErrTokenExpired
	case flows.IssueFailureRefreshRevoked:
		e.metricInc(MetricRefreshRevoked)
		e.emitAudit(AuditRefresh, result.SubjectID, false, ErrTokenRevoked, auditKind(jwt.KindRefresh), "")
		return "", ErrTokenRevoked
	case flows.IssueFailureRefreshMalformed:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(AuditRefresh, "", false, ErrTokenMalformed, auditKind(jwt.KindRefresh), "")
		return "", ErrTokenMalformed
	case flows.IssueFailureSubjectNotFound:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(AuditRefresh, "", false, ErrSubjectNotFound, auditKind(jwt.KindRefresh), "")
		return "", ErrSubjectNotFound
	case flows.IssueFailureSubjectInactive:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(AuditRefresh, result.SubjectID, false, ErrSubjectInactive, auditKind(jwt.KindRefresh), "")
		return "", ErrSubjectInactive
	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(AuditRefresh, "", false, result.Err, auditKind(jwt.KindRefresh), "")
		return "", wrapUnavailable(result.Err)
	}
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	result := e.flows.Validate(ctx, accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch result.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return &Principal{
			SubjectID: result.Subject.ID,
			Email:     result.Subject.Email,
			Claims:    result.Claims,
		}, nil
	case flows.ValidateFailureMissing:
		e.metricInc(MetricValidateRejected)
		return nil, ErrTokenMissing
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateRejected)
		return nil, ErrTokenExpired
	case flows.ValidateFailureWrongKind:
		e.metricInc(MetricValidateRejected)
		return nil, ErrTokenWrongKind
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRevoked)
		e.emitAudit(AuditAuthenticate, claimsSubject(result.Claims), false, ErrTokenRevoked, auditKind(jwt.KindAccess), "")
		return nil, ErrTokenRevoked
	case flows.ValidateFailureSubjectNotFound:
		e.metricInc(MetricValidateRejected)
		return nil, ErrSubjectNotFound
	case flows.ValidateFailureSubjectInactive:
		e.metricInc(MetricValidateRejected)
		return nil, ErrSubjectInactive
	case flows.ValidateFailureUnavailable:
		e.metricInc(MetricRedisUnavailable)
		return nil, wrapUnavailable(result.Err)
	default:
		e.metricInc(MetricValidateRejected)
		return nil, ErrTokenMalformed
	}
}

// VerifyAccessToken verifies an access token's signature, expiry, and
// kind without consulting the revocation ledger. It exists for
// high-frequency internal checks that accept the revocation-lag window;
// anything user-facing should call [Engine.Authenticate].
//
// VerifyAccessToken may return an error when input validation, dependency calls, or security checks fail.
// VerifyAccessToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyAccessToken(accessToken string) (*jwt.Claims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrTokenMissing
	}

	claims, err := e.jwtManager.Verify(accessToken, jwt.KindAccess)
	if err != nil {
		return nil, mapVerifyError(err)
	}
	return claims, nil
}

func claimsSubject(claims *jwt.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.SubjectID
}
