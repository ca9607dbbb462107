// Package handler 提供 HTTP 请求处理器
// 负责参数绑定、调用服务层以及把业务错误映射为统一响应
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"govchat-server/internal/middleware"
	"govchat-server/internal/service"
	"govchat-server/pkg/jwt"
	"govchat-server/pkg/response"
)

// AuthHandler 认证请求处理器
// 处理用户注册、登录、登出以及 Token 刷新
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup 用户注册
// @Summary 用户注册
// @Description 使用姓名、邮箱和密码注册，成功后直接返回 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.SignupRequest true "注册信息"
// @Success 201 {object} response.Response{data=service.AuthResponse}
// @Router /api/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	// ShouldBindJSON 会自动验证 binding 标签中的规则
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.UserExists(c)
		case errors.Is(err, service.ErrPasswordTooLong):
			response.BadRequest(c, "Invalid request: "+err.Error())
		default:
			c.Error(err)
			response.InternalError(c, "Signup failed")
		}
		return
	}

	response.Created(c, "User created", result)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用邮箱和密码登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=service.AuthResponse}
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.PasswordWrong(c)
		default:
			c.Error(err)
			response.InternalError(c, "Login failed")
		}
		return
	}

	response.SuccessWithMessage(c, "Login successful", result)
}

// Logout 用户登出
// @Summary 用户登出
// @Description 将当前 Token 加入黑名单
// @Tags 认证
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// 由认证中间件设置
	token, expireAt := middleware.GetToken(c)
	if token == "" {
		response.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token, expireAt); err != nil {
		c.Error(err)
		response.InternalError(c, "Logout failed")
		return
	}

	response.SuccessWithMessage(c, "Logged out", nil)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Description 使用 Refresh Token 获取新的 Access Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} response.Response{data=service.RefreshTokenResponse}
// @Router /api/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrExpiredToken):
			response.Unauthorized(c, "Invalid or expired refresh token")
		case errors.Is(err, service.ErrUserNotFound):
			response.UserNotFound(c)
		default:
			c.Error(err)
			response.InternalError(c, "Token refresh failed")
		}
		return
	}

	response.Success(c, result)
}
