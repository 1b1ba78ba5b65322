package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// tokenBucketScript atomically refills a user's token bucket based on
// elapsed time, then tries to take one token. Returns 1 when the vote is
// allowed, 0 when the bucket is empty.
// ARGV: [1]=now_ms, [2]=capacity, [3]=refill_per_minute, [4]=ttl_ms
var tokenBucketScript = goredis.NewScript(`
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last_refill = tonumber(redis.call('HGET', KEYS[1], 'last_refill'))
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
if tokens == nil then
  tokens = capacity
  last_refill = now
end
local elapsed_min = (now - last_refill) / 60000.0
tokens = math.min(capacity, tokens + elapsed_min * tonumber(ARGV[3]))
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return allowed
`)

// VoteRateLimiter implements per-user token bucket rate limiting for votes.
type VoteRateLimiter struct {
	rdb      *goredis.Client
	clock    clockwork.Clock
	capacity int
	rate     int // tokens per minute
}

// NewVoteRateLimiter creates a new vote rate limiter.
// capacity: maximum burst size (tokens)
// rate: sustained rate (tokens per minute)
func NewVoteRateLimiter(rdb *goredis.Client, clock clockwork.Clock, capacity, rate int) *VoteRateLimiter {
	return &VoteRateLimiter{
		rdb:      rdb,
		clock:    clock,
		capacity: capacity,
		rate:     rate,
	}
}

// Allow checks whether userID may cast another vote, consuming a token
// when it can.
func (v *VoteRateLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("rate_limit:votes:%d", userID)

	// Keep the bucket around long enough to refill twice over.
	ttlMs := int64(v.capacity) * 2 * 60_000 / int64(v.rate)

	result, err := tokenBucketScript.Run(ctx, v.rdb, []string{key},
		strconv.FormatInt(v.clock.Now().UnixMilli(), 10),
		strconv.Itoa(v.capacity),
		strconv.Itoa(v.rate),
		strconv.FormatInt(ttlMs, 10),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return result == 1, nil
}
