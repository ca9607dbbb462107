// Package cache 提供 JWT 黑名单的存储实现
// 多实例部署使用 Redis，单实例或开发环境可使用进程内缓存
package cache

import (
	"context"
	"fmt"
	"time"

	"govchat-server/internal/config"
)

// TokenBlacklist 已注销 Token 的黑名单
// 只保存 Token 的哈希值，条目在 Token 原过期时间后自动失效
type TokenBlacklist interface {
	// BlacklistToken 将 Token 哈希加入黑名单，直到 expireAt
	BlacklistToken(ctx context.Context, tokenHash string, expireAt time.Time) error
	// IsTokenBlacklisted 检查 Token 哈希是否在黑名单中
	IsTokenBlacklisted(ctx context.Context, tokenHash string) bool
	// Close 释放底层资源
	Close() error
}

// New 根据配置创建黑名单实现
func New(cfg *config.Config) (TokenBlacklist, error) {
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		return NewRedisCache(cfg)
	case config.CacheMemory:
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}

func blacklistKey(tokenHash string) string {
	return fmt.Sprintf("jwt:blacklist:%s", tokenHash)
}
