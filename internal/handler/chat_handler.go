package handler

import (
	"github.com/gin-gonic/gin"

	"govchat-server/internal/middleware"
	"govchat-server/internal/service"
	"govchat-server/pkg/response"
)

// ChatHandler 简化聊天接口处理器
// 不指定会话，消息发送到用户最近活动的会话
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 创建 ChatHandler 实例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 发送消息并获取回复
// @Summary 快速聊天
// @Tags 会话
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body service.SendMessageRequest true "消息内容"
// @Success 200 {object} response.Response{data=service.SendMessageResponse}
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), middleware.GetUserID(c), req.Text())
	if err != nil {
		writeSessionError(c, err, "Failed to send message")
		return
	}

	response.SuccessWithMessage(c, "Message sent", result)
}
