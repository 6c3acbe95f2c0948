package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"artcritic/internal/redis"
)

// RedisWindow counts requests in redis (INCR + EXPIRE), so the window is
// shared when several instances sit behind one load balancer. A redis outage
// fails open: the request is admitted and the failure logged, since rate
// limiting here protects quota, not correctness.
type RedisWindow struct {
	client *redis.Client
	max    int64
	length time.Duration
	prefix string
	log    zerolog.Logger
}

func NewRedisWindow(client *redis.Client, prefix string, max int, length time.Duration, logger zerolog.Logger) *RedisWindow {
	return &RedisWindow{
		client: client,
		max:    int64(max),
		length: length,
		prefix: prefix,
		log:    logger,
	}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) bool {
	redisKey := l.prefix + ":" + key
	count, err := l.client.Incr(ctx, redisKey)
	if err != nil {
		l.log.Warn().Err(err).Str("key", redisKey).Msg("rate limit incr failed, admitting request")
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.length); err != nil {
			l.log.Warn().Err(err).Str("key", redisKey).Msg("rate limit expire failed")
		}
	}
	return count <= l.max
}
