package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/revocation"
)

// RevocationReader is the read side of the revocation store.
type RevocationReader interface {
	Get(ctx context.Context, tokenValue string) (*revocation.Entry, error)
}

// InvalidateFailureKind classifies manual-invalidation failures for root-level mapping.
type InvalidateFailureKind int

const (
	InvalidateFailureNone InvalidateFailureKind = iota
	InvalidateFailureVerify
	InvalidateFailureDuplicate
	InvalidateFailureStore
)

// InvalidateResult carries the written entry or classified failure. On a
// duplicate, Existing holds the entry already on record.
type InvalidateResult struct {
	Failure  InvalidateFailureKind
	Err      error
	Entry    *revocation.Entry
	Existing *revocation.Entry
}

// InvalidateDeps captures manual-invalidation dependencies.
type InvalidateDeps struct {
	Verify       func(string, jwt.Kind) (*jwt.Claims, error)
	VerifyAnyAge func(string, jwt.Kind) (*jwt.Claims, error)
	Strict       bool
	Ledger       RevocationLedger
	Now          func() time.Time
}

// RunInvalidate revokes a caller-specified token. The token must verify
// so the entry's subject and expiry can be recovered from its own claims;
// in strict mode (the default) an expired token is rejected too. Unlike
// logout, a duplicate is surfaced as a conflict: this is an explicit
// administrative action and the caller should know the token was already
// dead.
func RunInvalidate(ctx context.Context, tokenValue string, kind jwt.Kind, deps InvalidateDeps) InvalidateResult {
	verify := deps.Verify
	if !deps.Strict {
		verify = deps.VerifyAnyAge
	}

	claims, err := verify(tokenValue, kind)
	if err != nil {
		return InvalidateResult{Failure: InvalidateFailureVerify, Err: err}
	}

	entry := entryFromClaims(tokenValue, claims, revocation.ReasonManual, deps.Now())
	stored, inserted, err := deps.Ledger.Insert(ctx, entry)
	if err != nil {
		return InvalidateResult{Failure: InvalidateFailureStore, Err: err}
	}
	if !inserted {
		return InvalidateResult{Failure: InvalidateFailureDuplicate, Existing: stored}
	}

	return InvalidateResult{Entry: stored}
}

// CheckDeps captures revocation-check dependencies. NotFound is the store
// driver's miss sentinel, injected so this package stays driver-agnostic.
type CheckDeps struct {
	Ledger   RevocationReader
	NotFound error
}

// CheckResult is a pure revocation read.
type CheckResult struct {
	Revoked bool
	Entry   *revocation.Entry
	Err     error
}

// RunCheckRevoked reports whether tokenValue is on the ledger. The value
// is treated as an opaque string: a garbage token is simply not found.
// Cryptographic validity is the gate's concern, not the ledger's.
func RunCheckRevoked(ctx context.Context, tokenValue string, deps CheckDeps) CheckResult {
	entry, err := deps.Ledger.Get(ctx, tokenValue)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return CheckResult{}
		}
		return CheckResult{Err: err}
	}
	return CheckResult{Revoked: true, Entry: entry}
}
