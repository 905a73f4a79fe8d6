package flows

import (
	"context"

	"github.com/MrEthical07/goRevoke/jwt"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.VerifyAccess != nil
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, accessToken, refreshToken string) LogoutResult {
	return RunLogout(ctx, accessToken, refreshToken, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, accessToken string) (LogoutAllResult, error) {
	return RunLogoutAll(ctx, accessToken, s.deps.Logout)
}

func (s Service) Invalidate(ctx context.Context, tokenValue string, kind jwt.Kind) InvalidateResult {
	return RunInvalidate(ctx, tokenValue, kind, s.deps.Invalidate)
}

func (s Service) CheckRevoked(ctx context.Context, tokenValue string) CheckResult {
	return RunCheckRevoked(ctx, tokenValue, s.deps.Check)
}

func (s Service) Register(ctx context.Context, email, password string) IssueResult {
	return RunRegister(ctx, email, password, s.deps.Issue)
}

func (s Service) Login(ctx context.Context, email, password string) IssueResult {
	return RunLogin(ctx, email, password, s.deps.Issue)
}

func (s Service) RefreshAccess(ctx context.Context, refreshToken string) IssueResult {
	return RunRefreshAccess(ctx, refreshToken, s.deps.Issue)
}
