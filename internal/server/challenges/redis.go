package challenges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "latecheck:challenge:"

// RedisLedger shares challenges between server instances. Expiry is left to
// Redis; consumption uses GETDEL so two finish calls cannot both see the
// same challenge.
type RedisLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLedger(client redis.UniversalClient, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Issue(ctx context.Context, key Key) ([]byte, error) {
	c, err := newChallenge()
	if err != nil {
		return nil, err
	}
	if err := l.client.Set(ctx, redisKeyPrefix+key.String(), c, l.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return c, nil
}

func (l *RedisLedger) Consume(ctx context.Context, key Key) ([]byte, error) {
	c, err := l.client.GetDel(ctx, redisKeyPrefix+key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrChallengeExpired
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return c, nil
}

// Ping reports whether the Redis server is reachable.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
