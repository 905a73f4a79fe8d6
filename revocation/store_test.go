package revocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*Store, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "rv", time.Minute, 0)
	return store, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testEntry(tokenValue, subjectID string, expiresIn time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		TokenValue: tokenValue,
		Kind:       KindAccess,
		SubjectID:  subjectID,
		Reason:     ReasonLogout,
		RevokedAt:  now.Unix(),
		ExpiresAt:  now.Add(expiresIn).Unix(),
	}
}

func TestInsertAndLookup(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	entry := testEntry("tok-1", "u-1", time.Hour)
	stored, inserted, err := store.Insert(ctx, entry)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert must report inserted")
	}
	if stored.TokenValue != "tok-1" {
		t.Fatalf("unexpected stored entry: %+v", stored)
	}

	revoked, revokedAt, err := store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("isRevoked: %v", err)
	}
	if !revoked || revokedAt != entry.RevokedAt {
		t.Fatalf("want revoked at %d, got %v %d", entry.RevokedAt, revoked, revokedAt)
	}

	revoked, _, err = store.IsRevoked(ctx, "never-seen")
	if err != nil {
		t.Fatalf("isRevoked miss: %v", err)
	}
	if revoked {
		t.Fatal("unknown token must not be revoked")
	}
}

func TestInsertDuplicateReturnsOriginalUnchanged(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	first := testEntry("tok-dup", "u-1", time.Hour)
	first.Reason = ReasonLogout
	if _, inserted, err := store.Insert(ctx, first); err != nil || !inserted {
		t.Fatalf("first insert: %v inserted=%v", err, inserted)
	}

	second := testEntry("tok-dup", "u-1", time.Hour)
	second.Reason = ReasonManual
	second.RevokedAt = first.RevokedAt + 100

	existing, inserted, err := store.Insert(ctx, second)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert must not report inserted")
	}
	if existing.Reason != ReasonLogout || existing.RevokedAt != first.RevokedAt {
		t.Fatalf("duplicate must return original entry unchanged, got %+v", existing)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("want exactly one entry, got %d", count)
	}
}

func TestConcurrentDuplicateInsertsSingleEntry(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		insertCount int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, inserted, err := store.Insert(ctx, testEntry("tok-race", "u-1", time.Hour))
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			if inserted {
				mu.Lock()
				insertCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if insertCount != 1 {
		t.Fatalf("exactly one goroutine must win the insert, got %d", insertCount)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("want one stored entry, got %d", count)
	}
}

func TestGetLazilyRemovesExpiredEntry(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	// The minimum-TTL floor keeps the Redis key alive even though the
	// entry's own expiry has already passed.
	entry := testEntry("tok-expired", "u-1", -time.Second)
	if _, _, err := store.Insert(ctx, entry); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := store.Get(ctx, "tok-expired"); !errors.Is(err, redis.Nil) {
		t.Fatalf("want redis.Nil for lapsed entry, got %v", err)
	}

	revoked, _, err := store.IsRevoked(ctx, "tok-expired")
	if err != nil {
		t.Fatalf("isRevoked: %v", err)
	}
	if revoked {
		t.Fatal("lapsed entry must read as not revoked")
	}
}

func TestReapExpiredRemovesOnlyLapsedEntries(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if _, _, err := store.Insert(ctx, testEntry("tok-old", "u-1", -time.Second)); err != nil {
		t.Fatalf("insert expired: %v", err)
	}
	if _, _, err := store.Insert(ctx, testEntry("tok-live", "u-1", time.Hour)); err != nil {
		t.Fatalf("insert live: %v", err)
	}

	removed, err := store.ReapExpired(ctx, time.Now(), 0)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if removed != 1 {
		t.Fatalf("want exactly one removal, got %d", removed)
	}

	revoked, _, err := store.IsRevoked(ctx, "tok-live")
	if err != nil || !revoked {
		t.Fatalf("live entry must survive the reap: %v %v", revoked, err)
	}
	revoked, _, err = store.IsRevoked(ctx, "tok-old")
	if err != nil || revoked {
		t.Fatalf("lapsed entry must be gone: %v %v", revoked, err)
	}

	// Second pass has nothing left to remove.
	removed, err = store.ReapExpired(ctx, time.Now(), 0)
	if err != nil {
		t.Fatalf("second reap: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second reap must remove nothing, got %d", removed)
	}
}

func TestReapExpiredHonorsBudget(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, token := range []string{"tok-a", "tok-b", "tok-c"} {
		if _, _, err := store.Insert(ctx, testEntry(token, "u-1", -time.Second)); err != nil {
			t.Fatalf("insert %s: %v", token, err)
		}
	}

	removed, err := store.ReapExpired(ctx, time.Now(), 2)
	if err != nil {
		t.Fatalf("bounded reap: %v", err)
	}
	if removed != 2 {
		t.Fatalf("budgeted reap must stop at 2, got %d", removed)
	}

	removed, err = store.ReapExpired(ctx, time.Now(), 2)
	if err != nil {
		t.Fatalf("followup reap: %v", err)
	}
	if removed != 1 {
		t.Fatalf("followup reap must drain the backlog, got %d", removed)
	}
}

func TestReapExpiredReconcilesCounter(t *testing.T) {
	store, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if _, _, err := store.Insert(ctx, testEntry("tok-kept", "u-1", time.Hour)); err != nil {
		t.Fatalf("insert kept: %v", err)
	}
	if _, _, err := store.Insert(ctx, testEntry("tok-gone", "u-1", time.Hour)); err != nil {
		t.Fatalf("insert gone: %v", err)
	}

	// Drop one entry key out from under the store, the way a native TTL
	// expiry would. The counter is now one too high.
	if err := rdb.Del(ctx, store.entryKey("tok-gone")).Err(); err != nil {
		t.Fatalf("del: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("counter should drift high before the sweep, got %d", count)
	}

	if _, err := store.ReapExpired(ctx, time.Now(), 0); err != nil {
		t.Fatalf("reap: %v", err)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("count after reap: %v", err)
	}
	if count != 1 {
		t.Fatalf("full sweep must pin the counter to survivors, got %d", count)
	}

	// A sweep cut short by its budget leaves the counter alone. Two
	// expired entries with a budget of one guarantee the cut.
	for _, token := range []string{"tok-lapsed-a", "tok-lapsed-b"} {
		if _, _, err := store.Insert(ctx, testEntry(token, "u-1", -time.Second)); err != nil {
			t.Fatalf("insert %s: %v", token, err)
		}
	}
	if err := store.SetCount(ctx, 9); err != nil {
		t.Fatalf("setCount: %v", err)
	}
	if removed, err := store.ReapExpired(ctx, time.Now(), 1); err != nil || removed != 1 {
		t.Fatalf("budgeted reap: removed=%d err=%v", removed, err)
	}
	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("count after budgeted reap: %v", err)
	}
	if count != 9 {
		t.Fatalf("budgeted sweep must not reconcile, got %d", count)
	}
}

func TestEntriesForSubjectOrderFilterAndCap(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	now := time.Now()
	for i, spec := range []struct {
		token string
		kind  TokenKind
	}{
		{"tok-r1", KindRefresh},
		{"tok-r2", KindRefresh},
		{"tok-a1", KindAccess},
	} {
		entry := &Entry{
			TokenValue: spec.token,
			Kind:       spec.kind,
			SubjectID:  "u-1",
			Reason:     ReasonLogoutAll,
			RevokedAt:  now.Unix() + int64(i),
			ExpiresAt:  now.Add(time.Hour).Unix(),
		}
		if _, _, err := store.Insert(ctx, entry); err != nil {
			t.Fatalf("insert %s: %v", spec.token, err)
		}
	}
	if _, _, err := store.Insert(ctx, testEntry("tok-other", "u-2", time.Hour)); err != nil {
		t.Fatalf("insert other subject: %v", err)
	}

	entries, err := store.EntriesForSubject(ctx, "u-1", nil, 0)
	if err != nil {
		t.Fatalf("entriesForSubject: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].RevokedAt < entries[i].RevokedAt {
			t.Fatal("entries must be most-recent-first")
		}
	}

	refresh := KindRefresh
	entries, err = store.EntriesForSubject(ctx, "u-1", &refresh, 0)
	if err != nil {
		t.Fatalf("kind filter: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 refresh entries, got %d", len(entries))
	}

	entries, err = store.EntriesForSubject(ctx, "u-1", nil, 1)
	if err != nil {
		t.Fatalf("capped: %v", err)
	}
	if len(entries) != 1 || entries[0].TokenValue != "tok-a1" {
		t.Fatalf("cap must keep the most recent entry, got %+v", entries)
	}

	entries, err = store.EntriesForSubject(ctx, "u-none", nil, 0)
	if err != nil {
		t.Fatalf("unknown subject: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unknown subject must be empty, got %d", len(entries))
	}
}

func TestEstimateEntriesAndPing(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, token := range []string{"tok-1", "tok-2"} {
		if _, _, err := store.Insert(ctx, testEntry(token, "u-1", time.Hour)); err != nil {
			t.Fatalf("insert %s: %v", token, err)
		}
	}

	total, err := store.EstimateEntries(ctx)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if total != 2 {
		t.Fatalf("want 2 entry keys, got %d", total)
	}

	if _, err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestUnavailableRedisWrapsSentinel(t *testing.T) {
	store, rdb, done := newStoreTest(t)
	done() // close miniredis up front
	_ = rdb

	ctx := context.Background()
	if _, _, err := store.Insert(ctx, testEntry("tok-1", "u-1", time.Hour)); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("insert: want ErrRedisUnavailable, got %v", err)
	}
	if _, _, err := store.IsRevoked(ctx, "tok-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("isRevoked: want ErrRedisUnavailable, got %v", err)
	}
}
