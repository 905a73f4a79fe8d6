package goRevoke

import "errors"

var (
	// ErrTokenMissing is an exported constant or variable used by the revocation engine.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed is an exported constant or variable used by the revocation engine.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is an exported constant or variable used by the revocation engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongKind is an exported constant or variable used by the revocation engine.
	ErrTokenWrongKind = errors.New("token kind mismatch")
	// ErrTokenRevoked is an exported constant or variable used by the revocation engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenInvalid is an exported constant or variable used by the revocation engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrAlreadyRevoked is an exported constant or variable used by the revocation engine.
	ErrAlreadyRevoked = errors.New("token already revoked")
	// ErrInvalidTokenKind is an exported constant or variable used by the revocation engine.
	ErrInvalidTokenKind = errors.New("invalid token kind")
	// ErrSubjectNotFound is an exported constant or variable used by the revocation engine.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrSubjectInactive is an exported constant or variable used by the revocation engine.
	ErrSubjectInactive = errors.New("subject inactive")
	// ErrSubjectExists is an exported constant or variable used by the revocation engine.
	ErrSubjectExists = errors.New("subject already exists")
	// ErrInvalidCredentials is an exported constant or variable used by the revocation engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordPolicy is an exported constant or variable used by the revocation engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRevocationUnavailable is an exported constant or variable used by the revocation engine.
	ErrRevocationUnavailable = errors.New("revocation backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the revocation engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
