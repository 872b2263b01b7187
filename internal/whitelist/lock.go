package whitelist

import (
	"context"
	"time"

	"acs-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// PairLocker serializes validate+write sequences per (person, access_point)
// so two concurrent writers cannot both pass overlap validation against a
// stale snapshot and persist a contradiction together.
type PairLocker interface {
	// LockPair blocks until the pair lock is held or ctx is done. The
	// returned func releases the lock.
	LockPair(ctx context.Context, personID, accessPointID string) (func(), error)
}

// RedisPairLocker implements PairLocker with a redis advisory lock.
type RedisPairLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPairLocker(rdb *redis.Client) *RedisPairLocker {
	return &RedisPairLocker{rdb: rdb, ttl: 10 * time.Second}
}

func (l *RedisPairLocker) LockPair(ctx context.Context, personID, accessPointID string) (func(), error) {
	key := "whitelist:pair:" + personID + ":" + accessPointID
	lock, err := utils.AcquireLock(ctx, l.rdb, key, l.ttl)
	if err != nil {
		return nil, err
	}
	return func() {
		// Release on a fresh context: the request context may already be
		// cancelled by the time the caller unwinds.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}, nil
}

// NopPairLocker is used with the memory store, which serializes on its own
// mutex.
type NopPairLocker struct{}

func (NopPairLocker) LockPair(ctx context.Context, personID, accessPointID string) (func(), error) {
	return func() {}, nil
}
