package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goRevoke "github.com/MrEthical07/goRevoke"
)

type principalContextKey struct{}

func PrincipalFromContext(ctx context.Context) (*goRevoke.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*goRevoke.Principal)
	return p, ok
}

// Guard enforces the full verification gate: signature, expiry, kind,
// revocation ledger, and subject status. Revoked tokens are rejected with
// 403 so clients can tell a dead session from a bad credential; every
// other failure is a plain 401.
func Guard(engine *goRevoke.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, goRevoke.ErrTokenRevoked) {
					http.Error(w, "token revoked", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
