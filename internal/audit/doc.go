// Package audit provides the asynchronous audit event pipeline.
//
// Events describe token lifecycle actions (issuance, validation,
// revocation, reaping). Delivery is decoupled from the hot path by a
// buffered dispatcher so a slow sink cannot stall token verification.
package audit
