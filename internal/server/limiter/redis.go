package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter stored in Redis: the first attempt
// creates the key with a TTL of one window, later attempts only increment it.
// Needs Redis 7 for EXPIRE NX.
type RedisLimiter struct {
	cli    *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter connects to url and retries the initial ping with
// exponential backoff for at most connectWait. A non-positive connectWait
// pings once.
func NewRedisLimiter(ctx context.Context, url string, limit int, window, connectWait time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)

	var b backoff.BackOff = &backoff.StopBackOff{}
	if connectWait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 100 * time.Millisecond
		eb.MaxElapsedTime = connectWait
		b = eb
	}
	err = backoff.Retry(func() error {
		return cli.Ping(ctx).Err()
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisLimiter{cli: cli, limit: int64(limit), window: window}, nil
}

// Allow increments the counter and, in the same MULTI/EXEC, gives it a TTL
// if it has none. A key left without a TTL by an earlier failure therefore
// heals on the next attempt instead of blocking the pair forever.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	var incr *redis.IntCmd
	_, err := l.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RedisLimiter) Close() error {
	return l.cli.Close()
}
