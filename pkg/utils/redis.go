package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// ErrLockNotAcquired is returned when the lock stayed held by another owner
// until ctx expired.
var ErrLockNotAcquired = errors.New("lock not acquired")

var lockAcquireScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- ARGV[2] = ttl_ms (int)
--
-- Returns:
--  1 if acquired
--  0 if held by another owner
if redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
  return 1
end
return 0
`)

var lockReleaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- Delete only if still owned by the caller.
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Lock is an advisory lock backed by a single redis key.
//
// Safety properties:
// - Atomic acquire using Lua (SET NX PX).
// - TTL prevents leaked locks on process crash.
// - Release is owner-checked: an expired-and-reacquired lock cannot be
//   deleted by the previous holder.
type Lock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// AcquireLock takes an advisory lock for key, polling until ctx is done.
// Callers must Release the returned lock.
func AcquireLock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*Lock, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be > 0")
	}

	l := &Lock{rdb: rdb, key: key, token: uuid.NewString(), ttl: ttl}

	for {
		res, err := lockAcquireScript.Run(ctx, rdb, []string{key}, l.token, ttl.Milliseconds()).Int()
		if err != nil {
			return nil, err
		}
		if res == 1 {
			return l, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockNotAcquired
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Release frees the lock if it is still owned by this holder.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	_, err := lockReleaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Result()
	return err
}
