package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] bucket, ARGV[1] step, ARGV[2] ttl in ms.
var incrStepScript = redis.NewScript(`
local step = tonumber(ARGV[1])
local count = redis.call('INCRBY', KEYS[1], step)
if count == step then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local now = redis.call('TIME')
return {tonumber(now[1]), tonumber(now[2]), count}
`)

// KEYS[1] counter, ARGV[1] limit.
var incrWrapScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count >= tonumber(ARGV[1]) - 1 then
  redis.call('DEL', KEYS[1])
end
local now = redis.call('TIME')
return {tonumber(now[1]), tonumber(now[2]), count}
`)

// KEYS[1] counter, ARGV[1] ttl in ms.
var incrExpireScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return count
`)

// RedisStore runs counter operations as Lua scripts on a Redis server.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key the store touches.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore wraps client. The store does not own the client; closing it
// is the caller's job.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*RedisStore)(nil)

// IncrStep implements Store.
func (s *RedisStore) IncrStep(ctx context.Context, key string, step int64, ttl time.Duration) (Reading, error) {
	vals, err := incrStepScript.Run(ctx, s.client, []string{s.prefix + key}, step, ttlMillis(ttl)).Int64Slice()
	if err != nil {
		return Reading{}, unavailable("incrstep", key, err)
	}
	return readingOf("incrstep", key, vals)
}

// IncrWrap implements Store.
func (s *RedisStore) IncrWrap(ctx context.Context, key string, limit int64) (Reading, error) {
	vals, err := incrWrapScript.Run(ctx, s.client, []string{s.prefix + key}, limit).Int64Slice()
	if err != nil {
		return Reading{}, unavailable("incrwrap", key, err)
	}
	return readingOf("incrwrap", key, vals)
}

// IncrExpire implements Store.
func (s *RedisStore) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrExpireScript.Run(ctx, s.client, []string{s.prefix + key}, ttlMillis(ttl)).Int64()
	if err != nil {
		return 0, unavailable("increxpire", key, err)
	}
	return n, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", "", err)
	}
	return nil
}

func readingOf(op, key string, vals []int64) (Reading, error) {
	if len(vals) != 3 {
		return Reading{}, unavailable(op, key, fmt.Errorf("unexpected script reply %v", vals))
	}
	return Reading{Time: TimeSample{Seconds: vals[0], Micros: vals[1]}, Count: vals[2]}, nil
}

// ttlMillis rounds ttl to whole milliseconds, never below one.
func ttlMillis(ttl time.Duration) int64 {
	ms := ttl.Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}
