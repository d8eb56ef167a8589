package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// bucketScript keeps one hash per bucket: "t" is the token balance and "at"
// the last refill in microseconds of Redis server time. It returns
// {allowed, whole tokens left, milliseconds until the next token}.
const bucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])

local clock = redis.call("TIME")
local now = tonumber(clock[1]) * 1000000 + tonumber(clock[2])

local state = redis.call("HMGET", KEYS[1], "t", "at")
local tokens = tonumber(state[1]) or burst
local at = tonumber(state[2]) or now
if now > at then
  tokens = math.min(burst, tokens + (now - at) / 1000000 * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) / rate * 1000)
end

redis.call("HSET", KEYS[1], "t", tostring(tokens), "at", tostring(now))
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return {allowed, math.floor(tokens), wait}
`

var (
	ErrNotConfigured = errors.New("rate limiter not configured")
	ErrEmptyKey      = errors.New("rate limiter key is empty")
	ErrInvalidRate   = errors.New("rate limiter rate and burst must be positive")
)

// TokenBucket runs the refill-and-take step atomically inside Redis so every
// API replica shares one bucket per key.
type TokenBucket struct {
	client redis.Scripter
	script *redis.Script
}

// Result is the outcome of one Allow call. Limit and Remaining feed the
// X-RateLimit-* headers, RetryAfter the Retry-After header.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func NewTokenBucket(client redis.Scripter) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(bucketScript)}
}

// Allow takes one token from the bucket stored at key, refilling rate tokens
// per second up to burst.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error) {
	switch {
	case t == nil || t.client == nil:
		return nil, ErrNotConfigured
	case key == "":
		return nil, ErrEmptyKey
	case rate <= 0 || burst <= 0:
		return nil, ErrInvalidRate
	}

	reply, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, idleTTL(rate, burst).Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	return decodeReply(reply, burst)
}

func decodeReply(reply []int64, burst int) (*Result, error) {
	if len(reply) != 3 {
		return nil, fmt.Errorf("token bucket: unexpected reply %v", reply)
	}
	return &Result{
		Allowed:    reply[0] == 1,
		Limit:      burst,
		Remaining:  int(max(reply[1], 0)),
		RetryAfter: time.Duration(max(reply[2], 0)) * time.Millisecond,
	}, nil
}

// idleTTL is how long an untouched bucket survives: twice a full refill,
// at least one second. An expired bucket starts full again.
func idleTTL(rate float64, burst int) time.Duration {
	seconds := math.Max(1, math.Ceil(2*float64(burst)/rate))
	return time.Duration(seconds) * time.Second
}
