package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 进程内黑名单，基于 go-cache
// 仅适用于单实例部署，重启后黑名单丢失
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// BlacklistToken 将 Token 哈希加入黑名单
func (c *MemoryCache) BlacklistToken(_ context.Context, tokenHash string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}
	c.store.Set(blacklistKey(tokenHash), struct{}{}, ttl)
	return nil
}

// IsTokenBlacklisted 检查 Token 哈希是否在黑名单中
func (c *MemoryCache) IsTokenBlacklisted(_ context.Context, tokenHash string) bool {
	_, found := c.store.Get(blacklistKey(tokenHash))
	return found
}

// Close 清空缓存
func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}
