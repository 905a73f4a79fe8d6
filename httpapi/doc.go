// Package httpapi serves the token lifecycle wire contract: JSON over
// HTTP with bearer access tokens and an HTTP-only refreshToken cookie.
//
// # Routes
//
//	POST /auth/register        — create subject, issue first token pair
//	POST /auth/login           — issue token pair
//	GET  /auth/me              — verification gate + subject identity
//	POST /auth/refresh         — rotate access token via refresh cookie
//	POST /logout               — revoke current session (never hard-fails)
//	POST /logout-all           — revoke every session for the bearer's subject
//	POST /invalidate-token     — revoke a caller-specified token
//	GET  /check-token/{token}  — pure revocation read
//	POST /cleanup-tokens       — reap lapsed ledger entries
//
// # Architecture boundaries
//
// This package translates HTTP to Engine calls and maps engine sentinel
// errors to status codes and stable error code strings. It holds no
// revocation logic of its own.
package httpapi
