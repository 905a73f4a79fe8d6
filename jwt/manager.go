package jwt

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the two token families issued by the codec. The kind
// is embedded in the claims and each kind signs under its own secret, so a
// leaked access secret cannot be used to forge refresh tokens.
type Kind string

const (
	// KindAccess is the short-lived bearer token presented on every request.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived token exchanged for new access tokens.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed is returned when a token fails signature or shape checks.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired is returned when a token is past its expiry claim.
	ErrExpired = errors.New("token expired")
	// ErrWrongKind is returned when a valid token declares a different kind
	// than the caller expected.
	ErrWrongKind = errors.New("token kind mismatch")
)

// Config defines a public type used by goRevoke APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Manager defines a public type used by goRevoke APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// Claims is the decoded claim set of a goRevoke token.
type Claims struct {
	SubjectID string `json:"uid"`
	TokenKind Kind   `json:"knd"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a codec for both token kinds.
//
// Equal access and refresh secrets are rejected outright: sharing one
// secret would collapse kind isolation into a claims check only, so the
// misconfiguration fails at startup instead.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs an access token for subjectID and returns the
// serialized token alongside its claims.
func (m *Manager) IssueAccess(subjectID string) (string, *Claims, error) {
	return m.issue(subjectID, KindAccess, m.config.AccessTTL, "")
}

// IssueRefresh signs a refresh token for subjectID. Each refresh token
// carries a random jti so otherwise-identical grants for the same subject
// remain distinguishable when enumerating sessions.
func (m *Manager) IssueRefresh(subjectID string) (string, *Claims, error) {
	return m.issue(subjectID, KindRefresh, m.config.RefreshTTL, uuid.NewString())
}

func (m *Manager) issue(subjectID string, kind Kind, ttl time.Duration, jti string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		SubjectID: subjectID,
		TokenKind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	serialized, err := token.SignedString(m.secretFor(kind))
	if err != nil {
		return "", nil, err
	}

	return serialized, claims, nil
}

// Verify checks signature, expiry, and declared kind. Every failure maps
// to exactly one of [ErrMalformed], [ErrExpired], [ErrWrongKind] so
// callers can produce precise responses. Revocation is deliberately not
// consulted here; that lookup belongs to the verification gate.
func (m *Manager) Verify(serialized string, expected Kind) (*Claims, error) {
	return m.verify(serialized, expected, false)
}

// VerifyIgnoreExpiry behaves like [Verify] but accepts tokens past their
// expiry claim. Signature and kind checks still apply. Logout flows use
// this so a just-expired token can still be revoked, which guards against
// clock skew between the issuing and revoking services.
func (m *Manager) VerifyIgnoreExpiry(serialized string, expected Kind) (*Claims, error) {
	return m.verify(serialized, expected, true)
}

func (m *Manager) verify(serialized string, expected Kind, ignoreExpiry bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if ignoreExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	} else if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(serialized, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secretFor(expected), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			// The parser only reports expiry once the signature held.
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return m.classifySignatureFailure(serialized, expected)
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.TokenKind != expected {
		return nil, ErrWrongKind
	}
	if ignoreExpiry && m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return nil, ErrMalformed
	}

	return claims, nil
}

// classifySignatureFailure distinguishes a token signed under the other
// kind's secret from an outright forgery. A cross-kind token is reported
// as [ErrWrongKind] rather than [ErrMalformed] so operators can spot type
// confusion instead of chasing phantom tampering.
func (m *Manager) classifySignatureFailure(serialized string, expected Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(serialized, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secretFor(otherKind(expected)), nil
	})
	if err != nil {
		return nil, ErrMalformed
	}
	return nil, ErrWrongKind
}

func (m *Manager) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return m.config.RefreshSecret
	}
	return m.config.AccessSecret
}

func otherKind(kind Kind) Kind {
	if kind == KindRefresh {
		return KindAccess
	}
	return KindRefresh
}

// SecretsEqual reports whether two secrets are identical in constant time.
// Used by engine config validation before a [Manager] is built.
func SecretsEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// ParseKind maps a wire-level token type string to a [Kind].
func ParseKind(s string) (Kind, bool) {
	switch s {
	case string(KindAccess):
		return KindAccess, true
	case string(KindRefresh):
		return KindRefresh, true
	}
	return "", false
}
