package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript atomically increments a counter and stamps the window
// expiry on first touch, returning the count and remaining TTL in
// milliseconds.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisCounters is a CounterStore backed by a shared Redis instance, for
// deployments where multiple processes gate the same identifiers.
type RedisCounters struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCounters builds a Redis-backed counter store.
func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{client: client, keyPrefix: "gate:"}
}

// Increment advances the counter for key inside the current window.
func (r *RedisCounters) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if r == nil || r.client == nil {
		return 0, 0, fmt.Errorf("redis client is not configured")
	}

	result, err := fixedWindowScript.Run(ctx, r.client, []string{r.keyPrefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("run fixed window script: %w", err)
	}
	if len(result) != 2 {
		return 0, 0, fmt.Errorf("unexpected script result length %d", len(result))
	}
	count, ok := result[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected count type %T", result[0])
	}
	ttlMillis, ok := result[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected ttl type %T", result[1])
	}
	remaining := time.Duration(ttlMillis) * time.Millisecond
	if remaining < 0 {
		remaining = 0
	}
	return int(count), remaining, nil
}
