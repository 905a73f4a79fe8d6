//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/MrEthical07/goRevoke/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*revocation.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := revocation.NewStore(rdb, "rv", 0, revocation.DefaultSubjectPage)

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeEntry(subjectID, tokenValue string, kind revocation.TokenKind, reason revocation.Reason) *revocation.Entry {
	now := time.Now()

	return &revocation.Entry{
		TokenValue: tokenValue,
		Kind:       kind,
		SubjectID:  subjectID,
		Reason:     reason,
		RevokedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}
}
