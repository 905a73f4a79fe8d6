package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/revocation"
)

// RevocationLedger is the write side of the revocation store as the
// logout flows see it.
type RevocationLedger interface {
	Insert(ctx context.Context, entry *revocation.Entry) (*revocation.Entry, bool, error)
}

// LogoutDeps captures logout and logout-all flow dependencies.
type LogoutDeps struct {
	VerifyAccess       func(string) (*jwt.Claims, error)
	VerifyAccessAnyAge func(string) (*jwt.Claims, error)
	VerifyRefresh      func(string) (*jwt.Claims, error)

	Ledger RevocationLedger

	ListRefreshTokens      func(ctx context.Context, subjectID string) ([]string, error)
	RemoveRefreshToken     func(ctx context.Context, subjectID, token string) error
	RemoveAllRefreshTokens func(ctx context.Context, subjectID string) error

	Now func() time.Time
}

// LogoutResult reports what a logout actually managed to revoke. The flow
// itself never fails: logout is unconditionally effective from the
// caller's perspective, and secondary cleanup errors are carried here for
// observability only.
type LogoutResult struct {
	SubjectID      string
	AccessRevoked  bool
	RefreshRevoked bool
	AccessErr      error
	RefreshErr     error
}

// LogoutAllResult reports a revoke-all sweep over a subject's sessions.
type LogoutAllResult struct {
	SubjectID string
	Revoked   int
	Skipped   int
}

// RunLogout revokes the presented tokens on a best-effort basis.
//
// The access token is revoked even when already expired: expiry checks on
// the gate side may disagree with this process by a few seconds of clock
// skew, and a dead ledger entry is harmless. A refresh token that fails
// verification is skipped without failing the logout, so a client logging
// out with a stale cookie still succeeds.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) LogoutResult {
	result := LogoutResult{}

	if accessToken != "" {
		claims, err := deps.VerifyAccessAnyAge(accessToken)
		if err != nil {
			result.AccessErr = err
		} else {
			result.SubjectID = claims.SubjectID
			_, _, err := deps.Ledger.Insert(ctx, entryFromClaims(accessToken, claims, revocation.ReasonLogout, deps.Now()))
			if err != nil {
				result.AccessErr = err
			} else {
				// A duplicate insert still means the token is revoked.
				result.AccessRevoked = true
			}
		}
	}

	if refreshToken != "" {
		claims, err := deps.VerifyRefresh(refreshToken)
		if err != nil {
			result.RefreshErr = err
		} else {
			if result.SubjectID == "" {
				result.SubjectID = claims.SubjectID
			}
			_, _, err := deps.Ledger.Insert(ctx, entryFromClaims(refreshToken, claims, revocation.ReasonLogout, deps.Now()))
			if err != nil {
				result.RefreshErr = err
			} else {
				result.RefreshRevoked = true
				if removeErr := deps.RemoveRefreshToken(ctx, claims.SubjectID, refreshToken); removeErr != nil && result.RefreshErr == nil {
					// Orphaned list references are harmless: the gate
					// consults the ledger, not the subject's list.
					result.RefreshErr = removeErr
				}
			}
		}
	}

	return result
}

// RunLogoutAll revokes the presented access token plus every refresh
// token on file for its subject. The bearer must verify; everything after
// that is loop-with-continue, so one bad stored token never aborts
// revocation of the rest.
func RunLogoutAll(ctx context.Context, accessToken string, deps LogoutDeps) (LogoutAllResult, error) {
	claims, err := deps.VerifyAccess(accessToken)
	if err != nil {
		return LogoutAllResult{}, err
	}

	result := LogoutAllResult{SubjectID: claims.SubjectID}
	now := deps.Now()

	if _, _, err := deps.Ledger.Insert(ctx, entryFromClaims(accessToken, claims, revocation.ReasonLogoutAll, now)); err == nil {
		result.Revoked++
	} else {
		result.Skipped++
	}

	stored, err := deps.ListRefreshTokens(ctx, claims.SubjectID)
	if err != nil {
		return result, err
	}

	for _, token := range stored {
		refreshClaims, verifyErr := deps.VerifyRefresh(token)
		if verifyErr != nil {
			// Expired or corrupt stored tokens cannot pass the gate
			// anyway; skip and keep sweeping.
			result.Skipped++
			continue
		}
		if _, _, insertErr := deps.Ledger.Insert(ctx, entryFromClaims(token, refreshClaims, revocation.ReasonLogoutAll, now)); insertErr != nil {
			result.Skipped++
			continue
		}
		result.Revoked++
	}

	if err := deps.RemoveAllRefreshTokens(ctx, claims.SubjectID); err != nil {
		return result, err
	}

	return result, nil
}

func entryFromClaims(tokenValue string, claims *jwt.Claims, reason revocation.Reason, now time.Time) *revocation.Entry {
	kind := revocation.KindAccess
	if claims.TokenKind == jwt.KindRefresh {
		kind = revocation.KindRefresh
	}

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}

	return &revocation.Entry{
		TokenValue: tokenValue,
		Kind:       kind,
		SubjectID:  claims.SubjectID,
		Reason:     reason,
		RevokedAt:  now.Unix(),
		ExpiresAt:  expiresAt,
	}
}
