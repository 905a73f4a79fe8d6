// Package goRevoke provides a token lifecycle engine: JWT access and
// refresh issuance under kind-separated secrets, a Redis-backed
// revocation ledger consulted on every authenticated request, and the
// logout-family operations that write to it.
//
// The package is designed for concurrent server workloads across process
// boundaries: the issuing service and the revoking service share nothing
// but Redis, and Engine methods are safe to call from multiple goroutines
// after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goRevoke is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Principal, RevocationStatus, etc.). All
// internal coordination (flow orchestration, entry encoding, audit
// dispatch) lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, ledger encoding details, or raw token
//     material in introspection views.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goRevoke (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path: one local signature/expiry check plus a
// single Redis GET. The revocation lookup is blocking I/O and runs only
// after the cheap local checks pass.
package goRevoke
