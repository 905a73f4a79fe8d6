package goRevoke

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRevoke/internal/flows"
	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/revocation"
)

// Logout revokes the presented access and refresh tokens. Logout is
// unconditionally effective from the caller's perspective: tokens that
// fail verification or that are already on the ledger do not surface as
// errors, only in the report.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) LogoutReport {
	if e == nil || !e.flows.Initialized() {
		return LogoutReport{}
	}

	result := e.flows.Logout(ctx, accessToken, refreshToken)
	e.metricInc(MetricLogout)
	e.emitAudit(AuditLogout, result.SubjectID, true, result.AccessErr, auditKind(jwt.KindAccess), auditReason(revocation.ReasonLogout))

	return LogoutReport{
		SubjectID:      result.SubjectID,
		AccessRevoked:  result.AccessRevoked,
		RefreshRevoked: result.RefreshRevoked,
	}
}

// LogoutAll describes the logoutall operation and its observable behavior.
//
// LogoutAll may return an error when input validation, dependency calls, or security checks fail.
// LogoutAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutAll(ctx context.Context, accessToken string) (LogoutAllReport, error) {
	if e == nil || !e.flows.Initialized() {
		return LogoutAllReport{}, ErrEngineNotReady
	}
	if accessToken == "" {
		return LogoutAllReport{}, ErrTokenMissing
	}

	result, err := e.flows.LogoutAll(ctx, accessToken)
	if err != nil {
		mapped := mapVerifyError(err)
		e.emitAudit(AuditLogoutAll, result.SubjectID, false, mapped, auditKind(jwt.KindAccess), auditReason(revocation.ReasonLogoutAll))
		return LogoutAllReport{
			SubjectID: result.SubjectID,
			Revoked:   result.Revoked,
			Skipped:   result.Skipped,
		}, mapped
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(AuditLogoutAll, result.SubjectID, true, nil, auditKind(jwt.KindAccess), auditReason(revocation.ReasonLogoutAll))

	return LogoutAllReport{
		SubjectID: result.SubjectID,
		Revoked:   result.Revoked,
		Skipped:   result.Skipped,
	}, nil
}

// InvalidateToken revokes a caller-specified token of the given kind.
// Unlike Logout, an already-revoked token is a conflict surfaced as
// [ErrAlreadyRevoked], and a token that fails verification is rejected
// with [ErrTokenInvalid].
//
// InvalidateToken may return an error when input validation, dependency calls, or security checks fail.
// InvalidateToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) InvalidateToken(ctx context.Context, tokenValue, tokenKind string) (*RevocationInfo, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if tokenValue == "" {
		return nil, ErrTokenMissing
	}

	kind, ok := jwt.ParseKind(tokenKind)
	if !ok {
		return nil, ErrInvalidTokenKind
	}

	result := e.flows.Invalidate(ctx, tokenValue, kind)
	switch result.Failure {
	case flows.InvalidateFailureNone:
		e.metricInc(MetricInvalidateSuccess)
		e.emitAudit(AuditInvalidate, result.Entry.SubjectID, true, nil, auditKind(kind), auditReason(revocation.ReasonManual))
		return revocationInfo(result.Entry), nil
	case flows.InvalidateFailureDuplicate:
		e.metricInc(MetricInvalidateDuplicate)
		e.emitAudit(AuditInvalidate, result.Existing.SubjectID, false, ErrAlreadyRevoked, auditKind(kind), auditReason(revocation.ReasonManual))
		return revocationInfo(result.Existing), ErrAlreadyRevoked
	case flows.InvalidateFailureVerify:
		e.metricInc(MetricInvalidateRejected)
		e.emitAudit(AuditInvalidate, "", false, ErrTokenInvalid, auditKind(kind), auditReason(revocation.ReasonManual))
		return nil, ErrTokenInvalid
	default:
		e.metricInc(MetricRedisUnavailable)
		return nil, wrapUnavailable(result.Err)
	}
}

// CheckToken reports whether the given opaque token value is on the
// revocation ledger. A malformed or unknown token is simply not revoked.
//
// CheckToken may return an error when input validation, dependency calls, or security checks fail.
// CheckToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckToken(ctx context.Context, tokenValue string) (RevocationStatus, error) {
	if e == nil || !e.flows.Initialized() {
		return RevocationStatus{}, ErrEngineNotReady
	}
	if tokenValue == "" {
		return RevocationStatus{}, ErrTokenMissing
	}

	e.metricInc(MetricCheckToken)
	result := e.flows.CheckRevoked(ctx, tokenValue)
	if result.Err != nil {
		e.metricInc(MetricRedisUnavailable)
		return RevocationStatus{}, wrapUnavailable(result.Err)
	}
	if !result.Revoked {
		return RevocationStatus{}, nil
	}

	e.metricInc(MetricCheckTokenRevoked)
	return RevocationStatus{
		Revoked:   true,
		RevokedAt: time.Unix(result.Entry.RevokedAt, 0).UTC(),
	}, nil
}

// SubjectRevocations lists live ledger entries for a subject, newest
// first. The kind filter is optional; pass an empty string for both
// kinds. Raw token values are never returned.
//
// SubjectRevocations may return an error when input validation, dependency calls, or security checks fail.
// SubjectRevocations does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubjectRevocations(ctx context.Context, subjectID, tokenKind string, limit int) ([]RevocationInfo, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	var kindFilter *revocation.TokenKind
	if tokenKind != "" {
		kind, ok := jwt.ParseKind(tokenKind)
		if !ok {
			return nil, ErrInvalidTokenKind
		}
		mapped := revocation.KindAccess
		if kind == jwt.KindRefresh {
			mapped = revocation.KindRefresh
		}
		kindFilter = &mapped
	}

	entries, err := e.store.EntriesForSubject(ctx, subjectID, kindFilter, limit)
	if err != nil {
		return nil, wrapUnavailable(err)
	}

	infos := make([]RevocationInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, *revocationInfo(entry))
	}
	return infos, nil
}

// ReapExpired removes ledger entries whose recorded expiry has lapsed,
// up to the configured batch limit, and returns how many were removed.
//
// ReapExpired may return an error when input validation, dependency calls, or security checks fail.
// ReapExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ReapExpired(ctx context.Context) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}

	removed, err := e.store.ReapExpired(ctx, e.now(), e.config.Reaper.BatchLimit)
	if err != nil {
		e.metricInc(MetricRedisUnavailable)
		return removed, wrapUnavailable(err)
	}

	if e.metrics != nil {
		e.metrics.Add(MetricEntriesReaped, uint64(removed))
	}
	e.emitAudit(AuditReap, "", true, nil, "", "")

	return removed, nil
}

func mapVerifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrWrongKind):
		return ErrTokenWrongKind
	case errors.Is(err, jwt.ErrMalformed):
		return ErrTokenMalformed
	default:
		return err
	}
}

func revocationInfo(entry *revocation.Entry) *RevocationInfo {
	if entry == nil {
		return nil
	}

	kind := jwt.KindAccess
	if entry.Kind == revocation.KindRefresh {
		kind = jwt.KindRefresh
	}

	return &RevocationInfo{
		Kind:      kind,
		SubjectID: entry.SubjectID,
		Reason:    auditReason(entry.Reason),
		RevokedAt: entry.RevokedAt,
		ExpiresAt: entry.ExpiresAt,
	}
}
