package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter, starts the window on the
// first hit, and returns the count with the milliseconds left in the window.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// WindowResult is the outcome of one fixed-window check.
type WindowResult struct {
	Allowed bool
	Count   int64
	Limit   int64
	ResetIn time.Duration
}

// Remaining is how many more requests fit in the current window.
func (r WindowResult) Remaining() int64 {
	if r.Count >= r.Limit {
		return 0
	}
	return r.Limit - r.Count
}

// FixedWindowAllow counts one request against scope. The increment and the
// window expiry are applied atomically, so a crash between them cannot leave
// a counter that never resets.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (WindowResult, error) {
	if c.store == nil {
		return WindowResult{}, errNotInitialized
	}
	if window <= 0 {
		return WindowResult{}, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	vals, err := fixedWindowScript.Run(ctx, c.store, []string{c.RateLimitKey(scope)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return WindowResult{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return WindowResult{}, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	return WindowResult{
		Allowed: vals[0] <= limit,
		Count:   vals[0],
		Limit:   limit,
		ResetIn: time.Duration(vals[1]) * time.Millisecond,
	}, nil
}
