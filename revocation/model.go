package revocation

// TokenKind mirrors the codec's token kind as a compact wire value.
type TokenKind uint8

const (
	// KindAccess marks an entry for a revoked access token.
	KindAccess TokenKind = 0
	// KindRefresh marks an entry for a revoked refresh token.
	KindRefresh TokenKind = 1
)

// Reason records why an entry was written.
type Reason uint8

const (
	// ReasonLogout is a single-session logout.
	ReasonLogout Reason = 0
	// ReasonLogoutAll is a revoke-all-sessions sweep.
	ReasonLogoutAll Reason = 1
	// ReasonManual is an explicit administrative invalidation.
	ReasonManual Reason = 2
)

// Entry is one revoked token. The token value is the identity: no two
// entries may share it, and every other field is fully determined by the
// token itself plus the revocation moment.
//
// Entries are immutable once written. ExpiresAt is copied verbatim from
// the revoked token's own expiry claim and doubles as the entry's TTL;
// once the token could no longer pass expiry checks anyway, the entry is
// allowed to lapse.
type Entry struct {
	TokenValue string
	Kind       TokenKind
	SubjectID  string
	Reason     Reason

	RevokedAt int64
	ExpiresAt int64
}
