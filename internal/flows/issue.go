package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goRevoke/jwt"
)

// IssueFailureKind classifies issuance and refresh failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureCredentials
	IssueFailureDuplicate
	IssueFailurePolicy
	IssueFailureSubjectNotFound
	IssueFailureSubjectInactive
	IssueFailureRefreshMalformed
	IssueFailureRefreshExpired
	IssueFailureRefreshRevoked
	IssueFailureUnavailable
)

// IssueSubject is the subject view the issuance flows need.
type IssueSubject struct {
	ID            string
	Email         string
	Active        bool
	RefreshTokens []string
}

// IssueResult carries issued tokens or a classified failure.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	SubjectID    string
	AccessToken  string
	RefreshToken string
}

// IssueDeps captures registration, login, and refresh dependencies.
type IssueDeps struct {
	IssueAccess   func(string) (string, *jwt.Claims, error)
	IssueRefresh  func(string) (string, *jwt.Claims, error)
	VerifyRefresh func(string) (*jwt.Claims, error)
	IsRevoked     func(context.Context, string) (bool, int64, error)

	FindByEmail     func(context.Context, string) (*IssueSubject, error)
	FindByID        func(context.Context, string) (*IssueSubject, error)
	CreateSubject   func(ctx context.Context, email, password string) (*IssueSubject, error)
	ComparePassword func(ctx context.Context, subjectID, password string) error
	AddRefreshToken func(ctx context.Context, subjectID, token string) error

	CheckPasswordPolicy func(string) error

	SubjectNotFound error
	SubjectExists   error
}

// RunRegister creates a subject and issues its first token pair.
func RunRegister(ctx context.Context, email, password string, deps IssueDeps) IssueResult {
	if err := deps.CheckPasswordPolicy(password); err != nil {
		return IssueResult{Failure: IssueFailurePolicy, Err: err}
	}

	subject, err := deps.CreateSubject(ctx, email, password)
	if err != nil {
		if deps.SubjectExists != nil && errors.Is(err, deps.SubjectExists) {
			return IssueResult{Failure: IssueFailureDuplicate, Err: err}
		}
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}

	return issuePair(ctx, subject.ID, deps)
}

// RunLogin authenticates credentials and issues a token pair.
func RunLogin(ctx context.Context, email, password string, deps IssueDeps) IssueResult {
	subject, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if deps.SubjectNotFound != nil && errors.Is(err, deps.SubjectNotFound) {
			// Same failure as a wrong password so callers cannot probe
			// for registered addresses.
			return IssueResult{Failure: IssueFailureCredentials, Err: err}
		}
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}
	if !subject.Active {
		return IssueResult{Failure: IssueFailureSubjectInactive}
	}

	if err := deps.ComparePassword(ctx, subject.ID, password); err != nil {
		return IssueResult{Failure: IssueFailureCredentials, Err: err}
	}

	return issuePair(ctx, subject.ID, deps)
}

// RunRefreshAccess exchanges a refresh token for a fresh access token.
// The refresh token must verify, must not be on the revocation ledger,
// and must still be on file for its subject.
func RunRefreshAccess(ctx context.Context, refreshToken string, deps IssueDeps) IssueResult {
	claims, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpired):
			return IssueResult{Failure: IssueFailureRefreshExpired, Err: err}
		default:
			return IssueResult{Failure: IssueFailureRefreshMalformed, Err: err}
		}
	}

	revoked, _, err := deps.IsRevoked(ctx, refreshToken)
	if err != nil {
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}
	if revoked {
		return IssueResult{Failure: IssueFailureRefreshRevoked, SubjectID: claims.SubjectID}
	}

	subject, err := deps.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if deps.SubjectNotFound != nil && errors.Is(err, deps.SubjectNotFound) {
			return IssueResult{Failure: IssueFailureSubjectNotFound, Err: err}
		}
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}
	if !subject.Active {
		return IssueResult{Failure: IssueFailureSubjectInactive, SubjectID: subject.ID}
	}

	onFile := false
	for _, stored := range subject.RefreshTokens {
		if stored == refreshToken {
			onFile = true
			break
		}
	}
	if !onFile {
		// Logout or logout-all already forgot this grant.
		return IssueResult{Failure: IssueFailureRefreshMalformed}
	}

	access, _, err := deps.IssueAccess(subject.ID)
	if err != nil {
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}

	return IssueResult{
		SubjectID:    subject.ID,
		AccessToken:  access,
		RefreshToken: refreshToken,
	}
}

func issuePair(ctx context.Context, subjectID string, deps IssueDeps) IssueResult {
	access, _, err := deps.IssueAccess(subjectID)
	if err != nil {
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}
	refresh, _, err := deps.IssueRefresh(subjectID)
	if err != nil {
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}
	if err := deps.AddRefreshToken(ctx, subjectID, refresh); err != nil {
		return IssueResult{Failure: IssueFailureUnavailable, Err: err}
	}

	return IssueResult{
		SubjectID:    subjectID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
