// Package revocation persists the ledger of invalidated tokens in Redis.
//
// The ledger is keyed by the exact serialized token value, indexed per
// subject for session enumeration, and self-expiring: each entry carries
// the revoked token's own expiry as a native Redis TTL, with an explicit
// bounded reaper on top for stores and windows where the TTL has not yet
// fired.
//
// An in-process substitute is only acceptable for single-instance test
// topologies; any real deployment of the issuing and revoking services
// must share this external store.
package revocation
