package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goRevoke/jwt"
)

// ValidateFailureKind classifies verification-gate failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureMalformed
	ValidateFailureExpired
	ValidateFailureWrongKind
	ValidateFailureRevoked
	ValidateFailureSubjectNotFound
	ValidateFailureSubjectInactive
	ValidateFailureUnavailable
)

// GateSubject is the minimal subject view the gate needs to admit a caller.
type GateSubject struct {
	ID     string
	Email  string
	Active bool
}

// ValidateResult returns either the admitted claims/subject or a classified failure.
type ValidateResult struct {
	Failure   ValidateFailureKind
	Err       error
	Claims    *jwt.Claims
	Subject   *GateSubject
	RevokedAt int64
}

// ValidateDeps captures verification-gate dependencies.
type ValidateDeps struct {
	VerifyAccess    func(string) (*jwt.Claims, error)
	IsRevoked       func(context.Context, string) (bool, int64, error)
	ResolveSubject  func(context.Context, string) (*GateSubject, error)
	SubjectNotFound error
}

// RunValidate executes the gate's ordered checks: local signature/expiry
// first, then the revocation lookup, then subject resolution. The
// ordering is load-bearing: the revocation lookup is blocking I/O and is
// skipped for tokens already dead on cheap local grounds, which also
// denies tampered-token probing via revocation-check timing.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.VerifyAccess(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpired):
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		case errors.Is(err, jwt.ErrWrongKind):
			return ValidateResult{Failure: ValidateFailureWrongKind, Err: err}
		default:
			return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
		}
	}

	revoked, revokedAt, err := deps.IsRevoked(ctx, tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureUnavailable, Err: err}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked, Claims: claims, RevokedAt: revokedAt}
	}

	subject, err := deps.ResolveSubject(ctx, claims.SubjectID)
	if err != nil {
		if deps.SubjectNotFound != nil && errors.Is(err, deps.SubjectNotFound) {
			return ValidateResult{Failure: ValidateFailureSubjectNotFound, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureUnavailable, Err: err}
	}
	if !subject.Active {
		return ValidateResult{Failure: ValidateFailureSubjectInactive, Claims: claims}
	}

	return ValidateResult{Claims: claims, Subject: subject}
}
