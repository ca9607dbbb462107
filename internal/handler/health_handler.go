package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"govchat-server/pkg/response"
)

// Pinger 可检查连通性的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler 创建 HealthHandler 实例
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health 健康检查
// 数据库不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.Error(err)
		response.ServiceUnavailable(c, "database unavailable")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
