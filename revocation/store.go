package revocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the revocation engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrEntryCorrupt is returned when a stored entry blob cannot be decoded.
var ErrEntryCorrupt = errors.New("revocation entry corrupt")

// DefaultSubjectPage caps per-subject enumeration when no explicit limit is given.
const DefaultSubjectPage = 50

const defaultMinEntryTTL = 2 * time.Minute

const (
	insertStatusExisting int64 = 0
	insertStatusInserted int64 = 1
)

const insertEntryScript = `
local existing = redis.call("GET", KEYS[1])
if existing then
  return {0, existing}
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
redis.call("INCR", KEYS[3])
return {1}
`

var insertEntryLua = redis.NewScript(insertEntryScript)

const removeEntryScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
  local count = tonumber(redis.call("GET", KEYS[3]) or "0")
  if count > 1 then
    redis.call("DECR", KEYS[3])
  elseif count == 1 then
    redis.call("DEL", KEYS[3])
  end
end
return existed
`

var removeEntryLua = redis.NewScript(removeEntryScript)

// Store is the Redis-backed revocation ledger. Redis is the shared source
// of truth across the issuing and revoking services, so every method is
// safe under arbitrary concurrent invocation from any number of
// processes. Entry keys carry a native PX TTL matching the revoked
// token's own expiry; [Store.ReapExpired] exists as an explicit sweep on
// top of that and as an externally triggerable maintenance action.
type Store struct {
	redis       redis.UniversalClient
	prefix      string
	minEntryTTL time.Duration
	subjectPage int
}

// NewStore creates a revocation [Store] backed by the given Redis client.
// prefix sets the Redis key namespace. minEntryTTL floors the native TTL
// so that already-expired tokens revoked for clock-skew defense still
// produce a short-lived entry; subjectPage caps per-subject enumeration.
func NewStore(
	redis redis.UniversalClient,
	prefix string,
	minEntryTTL time.Duration,
	subjectPage int,
) *Store {
	if minEntryTTL <= 0 {
		minEntryTTL = defaultMinEntryTTL
	}
	if subjectPage <= 0 {
		subjectPage = DefaultSubjectPage
	}
	return &Store{
		redis:       redis,
		prefix:      prefix,
		minEntryTTL: minEntryTTL,
		subjectPage: subjectPage,
	}
}

func (s *Store) entryKey(tokenValue string) string {
	return s.prefix + ":t:" + tokenValue
}

func (s *Store) subjectKey(subjectID string) string {
	return s.prefix + ":s:" + subjectID
}

func (s *Store) countKey() string {
	return s.prefix + ":count"
}

// Insert atomically writes entry unless an entry for the same token value
// already exists. The returned bool reports whether the write happened;
// on a duplicate the existing stored entry is returned unchanged and no
// error is raised. Callers decide whether a duplicate is benign (logout)
// or a conflict (manual invalidation).
//
//	Performance: 1 Lua EVALSHA (atomic check-and-insert).
func (s *Store) Insert(ctx context.Context, entry *Entry) (*Entry, bool, error) {
	blob, err := Encode(entry)
	if err != nil {
		return nil, false, err
	}

	ttl := time.Until(time.Unix(entry.ExpiresAt, 0))
	if ttl < s.minEntryTTL {
		ttl = s.minEntryTTL
	}

	result, err := insertEntryLua.Run(
		ctx,
		s.redis,
		[]string{s.entryKey(entry.TokenValue), s.subjectKey(entry.SubjectID), s.countKey()},
		blob,
		ttl.Milliseconds(),
		entry.TokenValue,
	).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, false, fmt.Errorf("%w: invalid insert script response", ErrRedisUnavailable)
	}
	status, ok := parts[0].(int64)
	if !ok {
		return nil, false, fmt.Errorf("%w: invalid insert script status", ErrRedisUnavailable)
	}

	switch status {
	case insertStatusInserted:
		return entry, true, nil
	case insertStatusExisting:
		if len(parts) < 2 {
			return nil, false, fmt.Errorf("%w: missing existing entry payload", ErrRedisUnavailable)
		}
		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, false, fmt.Errorf("%w: invalid existing entry payload", ErrRedisUnavailable)
		}
		existing, decErr := Decode(blob)
		if decErr != nil {
			return nil, false, errors.Join(ErrEntryCorrupt, decErr)
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("%w: unknown insert script status", ErrRedisUnavailable)
	}
}

// IsRevoked reports whether tokenValue has a live revocation entry, and
// if so when it was revoked. Opaque garbage strings are simply not found,
// which is the correct answer: an invalid token fails independently at
// the verification gate.
//
//	Performance: 1 Redis GET on the hot path of every authenticated request.
func (s *Store) IsRevoked(ctx context.Context, tokenValue string) (bool, int64, error) {
	entry, err := s.Get(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, entry.RevokedAt, nil
}

// Get returns the live entry for tokenValue, or redis.Nil if none exists.
// An entry past its own expiry is lazily removed and reported as absent.
func (s *Store) Get(ctx context.Context, tokenValue string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.entryKey(tokenValue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	entry, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrEntryCorrupt, err)
	}

	if entry.ExpiresAt <= time.Now().Unix() {
		if err := s.removeEntryAndIndex(ctx, entry.SubjectID, tokenValue); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	return entry, nil
}

// EntriesForSubject returns live entries owned by subjectID, most recent
// first, filtered by kind when kind is non-nil and capped at limit
// (DefaultSubjectPage when limit <= 0). Dangling index members left
// behind by native TTL expiry are pruned as they are encountered.
func (s *Store) EntriesForSubject(ctx context.Context, subjectID string, kind *TokenKind, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > s.subjectPage {
		limit = s.subjectPage
	}

	tokenValues, err := s.redis.SMembers(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(tokenValues) == 0 {
		return []*Entry{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(tokenValues))
	for i, tokenValue := range tokenValues {
		cmds[i] = pipe.Get(ctx, s.entryKey(tokenValue))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	nowUnix := time.Now().Unix()
	entries := make([]*Entry, 0, len(tokenValues))
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				// Entry expired natively; drop the stale index member.
				_ = s.redis.SRem(ctx, s.subjectKey(subjectID), tokenValues[i]).Err()
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		entry, decErr := Decode(data)
		if decErr != nil {
			return nil, errors.Join(ErrEntryCorrupt, decErr)
		}
		if entry.ExpiresAt <= nowUnix {
			continue
		}
		if kind != nil && entry.Kind != *kind {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RevokedAt > entries[j].RevokedAt
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// ReapExpired deletes entries whose expiry has passed. maxRemovals bounds
// the per-run budget; a large backlog is processed across invocations
// rather than in one unbounded sweep. Returns the number of entries
// removed. A sweep that finishes the scan also reconciles the live-entry
// counter against the entries it actually saw, correcting drift from
// native TTL expiry; a sweep cut short by the budget leaves it alone.
//
// Safe to call concurrently with inserts and lookups: each removal is a
// single atomic script and the scan never holds locks between batches.
func (s *Store) ReapExpired(ctx context.Context, now time.Time, maxRemovals int) (int, error) {
	pattern := s.prefix + ":t:*"
	nowUnix := now.Unix()

	var (
		cursor    uint64
		removed   int
		surviving int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 512).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			if maxRemovals > 0 && removed >= maxRemovals {
				return removed, nil
			}

			data, getErr := s.redis.Get(ctx, key).Bytes()
			if getErr != nil {
				if errors.Is(getErr, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, getErr)
			}

			entry, decErr := Decode(data)
			if decErr != nil {
				// A corrupt blob can never satisfy a lookup; drop it.
				_ = s.redis.Del(ctx, key).Err()
				continue
			}
			if entry.ExpiresAt > nowUnix {
				surviving++
				continue
			}

			if err := s.removeEntryAndIndex(ctx, entry.SubjectID, entry.TokenValue); err != nil {
				return removed, err
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := s.pruneSubjectIndexes(ctx); err != nil {
		return removed, err
	}

	// A finished scan saw every live entry, so the counter can be pinned
	// to what actually survived. Budget-cut sweeps return above and leave
	// the counter to script-maintained increments.
	if err := s.SetCount(ctx, surviving); err != nil {
		return removed, err
	}

	return removed, nil
}

// pruneSubjectIndexes drops index members whose entry key expired
// natively, so the per-subject sets do not accumulate dead token values
// between enumerations.
func (s *Store) pruneSubjectIndexes(ctx context.Context) error {
	pattern := s.prefix + ":s:*"
	var cursor uint64

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 512).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, subjectKey := range keys {
			members, err := s.redis.SMembers(ctx, subjectKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			if len(members) == 0 {
				continue
			}

			pipe := s.redis.Pipeline()
			existsCmds := make([]*redis.IntCmd, len(members))
			for i, member := range members {
				existsCmds[i] = pipe.Exists(ctx, s.entryKey(member))
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}

			stale := make([]interface{}, 0)
			for i, cmd := range existsCmds {
				v, cmdErr := cmd.Result()
				if cmdErr != nil {
					return fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
				}
				if v == 0 {
					stale = append(stale, members[i])
				}
			}
			if len(stale) > 0 {
				if err := s.redis.SRem(ctx, subjectKey, stale...).Err(); err != nil {
					return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
				}
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Count returns the tracked live-entry counter. The counter is maintained
// by the insert/remove scripts and reconciled by the reaper; native TTL
// expiry between reaps can leave it slightly high.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.redis.Get(ctx, s.countKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// SetCount sets (or clears) the tracked entry counter. Used by the reaper
// for post-sweep reconciliation.
func (s *Store) SetCount(ctx context.Context, count int) error {
	key := s.countKey()
	if count <= 0 {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}
	if err := s.redis.Set(ctx, key, count, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// EstimateEntries scans entry keys and counts matches. This is an
// admin-only O(n) operation and must not be used in request hot paths.
func (s *Store) EstimateEntries(ctx context.Context) (int, error) {
	pattern := s.prefix + ":t:*"
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) removeEntryAndIndex(ctx context.Context, subjectID, tokenValue string) error {
	_, err := removeEntryLua.Run(
		ctx,
		s.redis,
		[]string{s.entryKey(tokenValue), s.subjectKey(subjectID), s.countKey()},
		tokenValue,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
