package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"govchat-server/internal/middleware"
	"govchat-server/internal/service"
	"govchat-server/pkg/response"
)

// SessionHandler 会话请求处理器
type SessionHandler struct {
	sessionService *service.SessionService
	chatService    *service.ChatService
}

// NewSessionHandler 创建 SessionHandler 实例
func NewSessionHandler(sessionService *service.SessionService, chatService *service.ChatService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		chatService:    chatService,
	}
}

// ListSessions 获取当前用户的会话列表
// @Summary 获取会话列表
// @Description 最近活动的会话在前
// @Tags 会话
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=[]service.SessionResponse}
// @Router /api/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to list sessions")
		return
	}

	response.Success(c, sessions)
}

// CreateSession 创建新会话
// @Summary 创建会话
// @Tags 会话
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body service.CreateSessionRequest true "会话标题"
// @Success 201 {object} response.Response{data=service.SessionResponse}
// @Router /api/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.UserNotFound(c)
		default:
			c.Error(err)
			response.InternalError(c, "Failed to create session")
		}
		return
	}

	response.Created(c, "Session created", session)
}

// ListMessages 获取会话的消息历史
// @Summary 获取会话消息
// @Description 按时间正序返回
// @Tags 会话
// @Security Bearer
// @Produce json
// @Param id path int true "会话ID"
// @Success 200 {object} response.Response{data=[]service.MessageResponse}
// @Router /api/sessions/{id} [get]
func (h *SessionHandler) ListMessages(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	messages, err := h.sessionService.ListMessages(c.Request.Context(), middleware.GetUserID(c), sessionID)
	if err != nil {
		writeSessionError(c, err, "Failed to load messages")
		return
	}

	response.Success(c, messages)
}

// SendMessage 在会话中发送消息
// @Summary 发送消息
// @Description 保存用户消息和机器人回复，并更新会话
// @Tags 会话
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "会话ID"
// @Param body body service.SendMessageRequest true "消息内容"
// @Success 201 {object} response.Response{data=service.SendMessageResponse}
// @Router /api/sessions/{id}/msg [post]
func (h *SessionHandler) SendMessage(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), middleware.GetUserID(c), sessionID, req.Text())
	if err != nil {
		writeSessionError(c, err, "Failed to send message")
		return
	}

	response.Created(c, "Message sent", result)
}

// parseSessionID 解析路径中的会话 ID，失败时已写入 400 响应
func parseSessionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid session id")
		return 0, false
	}
	return id, true
}

// writeSessionError 将会话相关的业务错误映射为响应
func writeSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidSender):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.SessionNotFound(c)
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, "You do not have access to this session")
	case errors.Is(err, service.ErrUserNotFound):
		response.UserNotFound(c)
	default:
		c.Error(err)
		response.InternalError(c, fallback)
	}
}
