package goRevoke

import (
	"context"
	"time"

	"github.com/MrEthical07/goRevoke/jwt"
)

// SubjectRecord is the full account record returned by [SubjectProvider].
// RefreshTokens is the subject's on-file refresh grants; the set of
// currently valid refresh sessions is this list minus revoked minus
// expired tokens.
type SubjectRecord struct {
	ID            string
	Email         string
	Active        bool
	RefreshTokens []string
}

// SubjectProvider is the primary interface that callers must implement to
// back the engine with their user storage. Implementations must return
// [ErrSubjectNotFound] for unknown subjects and [ErrSubjectExists] for
// duplicate creation, and must be safe for concurrent use.
type SubjectProvider interface {
	FindByID(ctx context.Context, subjectID string) (*SubjectRecord, error)
	FindByEmail(ctx context.Context, email string) (*SubjectRecord, error)
	CreateSubject(ctx context.Context, email, password string) (*SubjectRecord, error)
	ComparePassword(ctx context.Context, subjectID, password string) error
	AddRefreshToken(ctx context.Context, subjectID, token string) error
	RemoveRefreshToken(ctx context.Context, subjectID, token string) error
	RemoveAllRefreshTokens(ctx context.Context, subjectID string) error
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Principal is the authenticated identity yielded by the verification
// gate once signature, expiry, revocation, and subject checks all pass.
type Principal struct {
	SubjectID string
	Email     string
	Claims    *jwt.Claims
}

// RevocationStatus is a pure revocation read for an opaque token value.
type RevocationStatus struct {
	Revoked   bool
	RevokedAt time.Time
}

// LogoutReport describes what a logout actually revoked. Logout itself
// never fails; the report exists for observability.
type LogoutReport struct {
	SubjectID      string
	AccessRevoked  bool
	RefreshRevoked bool
}

// LogoutAllReport describes a revoke-all sweep.
type LogoutAllReport struct {
	SubjectID string
	Revoked   int
	Skipped   int
}

// RevocationInfo is the safe introspection view of a ledger entry. It
// intentionally excludes the raw token value.
type RevocationInfo struct {
	Kind      jwt.Kind
	SubjectID string
	Reason    string
	RevokedAt int64
	ExpiresAt int64
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}
