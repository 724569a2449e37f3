package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("rate limiter: redis unavailable")

// RedisLimiter is a fixed-window Limiter shared by every server process that
// points at the same Redis.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "fitletter:rl"
	}
	return &RedisLimiter{redis: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.incrementWithTTL(ctx, l.prefix+":"+key, window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

func (l *RedisLimiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	current := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// TTL is set on the first hit so the window does not slide. A key left
	// without one (an earlier EXPIRE failed) gets it now instead of counting forever.
	count := incr.Val()
	if count == 1 || current.Val() < 0 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
