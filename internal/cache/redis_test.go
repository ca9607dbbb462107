package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govchat-server/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(&config.Config{
		Redis: config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func TestRedisCacheBlacklistWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)
	require.NoError(t, c.Ping(ctx))

	assert.False(t, c.IsTokenBlacklisted(ctx, "abc"))

	require.NoError(t, c.BlacklistToken(ctx, "abc", time.Now().Add(time.Hour)))
	assert.True(t, c.IsTokenBlacklisted(ctx, "abc"))
	assert.False(t, c.IsTokenBlacklisted(ctx, "def"))

	ttl := mr.TTL(blacklistKey("abc"))
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	// 到期后条目自动删除
	mr.FastForward(time.Hour + time.Second)
	assert.False(t, c.IsTokenBlacklisted(ctx, "abc"))
}

func TestRedisCacheSkipsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	require.NoError(t, c.BlacklistToken(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(blacklistKey("old")))
	assert.False(t, c.IsTokenBlacklisted(ctx, "old"))
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)
	require.NoError(t, c.BlacklistToken(ctx, "abc", time.Now().Add(time.Hour)))

	mr.Close()
	assert.Error(t, c.BlacklistToken(ctx, "xyz", time.Now().Add(time.Hour)))
	// 不可用时视为未拉黑
	assert.False(t, c.IsTokenBlacklisted(ctx, "abc"))
}

func TestNewSelectsRedisDriver(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Cache: config.CacheConfig{Driver: config.CacheRedis},
		Redis: config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)},
	}

	bl, err := New(cfg)
	require.NoError(t, err)
	defer bl.Close()
	assert.IsType(t, &RedisCache{}, bl)

	mr.Close()
	_, err = New(cfg)
	assert.Error(t, err)
}
