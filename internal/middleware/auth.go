// Package middleware 提供 HTTP 请求的中间件
// 包括 JWT 认证、CORS 跨域、日志记录和 panic 恢复
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"govchat-server/internal/cache"
	"govchat-server/pkg/jwt"
	"govchat-server/pkg/response"
	"govchat-server/pkg/util"
)

// 上下文键
const (
	ContextUserID   = "user_id"
	ContextEmail    = "email"
	ContextToken    = "token"
	ContextTokenExp = "token_exp"
)

// AuthMiddleware 创建 JWT 认证中间件
// 验证请求头中的 Bearer Token，并将用户信息存入上下文
// 认证失败时直接返回 401，不会进入后续 Handler
// 参数:
//   - jwtService: JWT 服务实例，用于解析和验证 Token
//   - blacklist: Token 黑名单
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func AuthMiddleware(jwtService *jwt.JWTService, blacklist cache.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authentication required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "Malformed authorization header")
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		// 用户登出后 Token 会被加入黑名单
		if blacklist.IsTokenBlacklisted(c.Request.Context(), util.HashToken(tokenString)) {
			response.Unauthorized(c, "Token has been revoked")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextToken, tokenString) // 登出时计算哈希
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExp, claims.ExpiresAt.Time) // 登出时设置黑名单 TTL
		}

		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
// 返回:
//   - int64: 用户 ID，如果未认证返回 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

// GetToken 从上下文获取原始 Token 及其过期时间
func GetToken(c *gin.Context) (string, time.Time) {
	return c.GetString(ContextToken), c.GetTime(ContextTokenExp)
}
