package lock

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLocker shares per-salon locks between instances through Redis.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewRedisLocker wraps an existing Redis client. ttl bounds how long a crashed holder blocks a salon.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, log logrus.FieldLogger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		log:    log,
	}
}

// Lock retries with linear backoff until ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lk, err := r.client.Obtain(ctx, "lock:"+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(25 * time.Millisecond),
	})
	if err == redislock.ErrNotObtained || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, errors.Wrapf(err, "obtain lock %s", key)
	}

	return func() {
		// Release with a fresh context so a cancelled request still frees the salon.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && err != redislock.ErrLockNotHeld {
			r.log.WithError(err).WithField("key", key).Warn("failed to release redis lock")
		}
	}, nil
}
