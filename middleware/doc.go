// Package middleware exposes HTTP middleware adapters for the goRevoke
// verification gate.
//
// # Guards
//
//   - [Guard] — full gate: signature, expiry, revocation ledger, subject status.
//   - [RequireLocal] — stateless JWT verification, no Redis call.
//
// Each guard reads the Authorization header, calls the matching Engine
// verification, and injects the result into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself — all decisions are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
