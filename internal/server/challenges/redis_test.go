package challenges

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLedger(t *testing.T, ttl time.Duration) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client, ttl), mr
}

func TestRedisLedger_IssueConsume(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t, time.Minute)

	c, err := l.Issue(ctx, regKey)
	require.NoError(t, err)
	assert.Len(t, c, common.ChallengeSize)
	assert.True(t, mr.Exists(redisKeyPrefix+regKey.String()))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+regKey.String()))

	got, err := l.Consume(ctx, regKey)
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.False(t, mr.Exists(redisKeyPrefix+regKey.String()))

	_, err = l.Consume(ctx, regKey)
	assert.ErrorIs(t, err, common.ErrChallengeExpired)
}

func TestRedisLedger_Expiry(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t, time.Minute)

	_, err := l.Issue(ctx, regKey)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = l.Consume(ctx, regKey)
	assert.ErrorIs(t, err, common.ErrChallengeExpired)
}

func TestRedisLedger_ServerDown(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t, time.Minute)
	mr.Close()

	_, err := l.Issue(ctx, regKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrChallengeExpired)
}

func TestRedisLedger_Ping(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t, time.Minute)

	require.NoError(t, l.Ping(ctx))
	mr.Close()
	assert.Error(t, l.Ping(ctx))
}
