package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"govchat-server/internal/middleware"
	"govchat-server/internal/service"
	"govchat-server/pkg/response"
)

// UserHandler 用户请求处理器
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 用户
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=service.UserSummary}
// @Router /api/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.UserNotFound(c)
		default:
			c.Error(err)
			response.InternalError(c, "Failed to load profile")
		}
		return
	}

	response.Success(c, profile)
}
