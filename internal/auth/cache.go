package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session cache key families. Both carry independent TTLs refreshed on every
// write; letting Redis expire them is the only cleanup the server needs.
const (
	refreshKeyPrefix = "refresh_token:"
	versionKeyPrefix = "user_version:"
)

// ErrCacheUnavailable wraps infrastructure failures from the cache backend.
var ErrCacheUnavailable = errors.New("session cache unavailable")

// checkRefreshScript compares the stored refresh token against the presented
// one. Any divergence (missing key included) destroys both session keys so a
// suspected replay cannot be retried and the next version check falls back to
// durable truth. Runs atomically server-side: two racing rotations for the
// same user produce exactly one winner.
var checkRefreshScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current or current ~= ARGV[1] then
  redis.call("DEL", KEYS[1])
  redis.call("DEL", KEYS[2])
  return 0
end
return 1
`)

// rotateRefreshScript is the commit step: swap in the next token only if the
// presented one is still current, otherwise tear the session down exactly
// like checkRefreshScript. The re-check closes the window between a passed
// freshness check and the overwrite.
var rotateRefreshScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current or current ~= ARGV[1] then
  redis.call("DEL", KEYS[1])
  redis.call("DEL", KEYS[2])
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
return 1
`)

// SessionCache holds the ephemeral per-user session state: the single current
// refresh token and a cached copy of the durable token version.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionCache wraps rdb. ttl bounds both key families; zero selects the
// 7-day default matching the refresh token lifetime.
func NewSessionCache(rdb *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &SessionCache{rdb: rdb, ttl: ttl}
}

func refreshKey(userID string) string { return refreshKeyPrefix + userID }
func versionKey(userID string) string { return versionKeyPrefix + userID }

// SaveRefresh overwrites the current refresh token for userID. Overwriting,
// never appending, is what enforces the single-current-token invariant.
func (c *SessionCache) SaveRefresh(ctx context.Context, userID, token string) error {
	if err := c.rdb.Set(ctx, refreshKey(userID), token, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// CheckCurrent verifies that presented is byte-exact equal to the stored
// refresh token. On mismatch or absence it deletes both session keys and
// returns ErrRefreshMismatch.
func (c *SessionCache) CheckCurrent(ctx context.Context, userID, presented string) error {
	keys := []string{refreshKey(userID), versionKey(userID)}
	ok, err := checkRefreshScript.Run(ctx, c.rdb, keys, presented).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if ok == 0 {
		return ErrRefreshMismatch
	}
	return nil
}

// Rotate atomically replaces presented with next. The swap only happens if
// presented is still current; a concurrent rotation that got there first
// turns this call into a mismatch and the session dies, by the same
// fail-closed policy as CheckCurrent.
func (c *SessionCache) Rotate(ctx context.Context, userID, presented, next string) error {
	keys := []string{refreshKey(userID), versionKey(userID)}
	ttlSec := strconv.FormatInt(int64(c.ttl/time.Second), 10)
	ok, err := rotateRefreshScript.Run(ctx, c.rdb, keys, presented, next, ttlSec).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if ok == 0 {
		return ErrRefreshMismatch
	}
	return nil
}

// Version reads the cached token version. found is false on a cache miss,
// which callers treat as normal operation, not an error.
func (c *SessionCache) Version(ctx context.Context, userID string) (version int64, found bool, err error) {
	val, err := c.rdb.Get(ctx, versionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	version, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt entry: drop it and report a miss so the durable store wins.
		_ = c.rdb.Del(ctx, versionKey(userID)).Err()
		return 0, false, nil
	}
	return version, true, nil
}

// SetVersion caches the durable token version with a fresh TTL.
func (c *SessionCache) SetVersion(ctx context.Context, userID string, version int64) error {
	val := strconv.FormatInt(version, 10)
	if err := c.rdb.Set(ctx, versionKey(userID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Drop removes both session keys for userID. Used on logout and as the
// destructive half of reuse detection. Deleting absent keys is a no-op.
func (c *SessionCache) Drop(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, refreshKey(userID), versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
