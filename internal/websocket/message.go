// Package websocket 提供实时事件推送
// 客户端通过 WebSocket 订阅自己会话中的新消息和新会话
package websocket

import (
	"time"

	"govchat-server/internal/service"
	"govchat-server/pkg/util"
)

// MessageType 消息类型常量
const (
	// 客户端 → 服务端
	TypeHeartbeat = "heartbeat" // 心跳

	// 服务端 → 客户端
	TypeSessionCreated = "session:created" // 新会话
	TypeMessageCreated = "message:created" // 新消息（用户消息和机器人回复）

	// 通用
	TypeError = "error" // 错误消息
	TypePong  = "pong"  // 心跳响应
)

// Message WebSocket 消息结构
// 所有消息都使用这个统一的结构
type Message struct {
	Type      string      `json:"type"`                 // 消息类型
	Payload   interface{} `json:"payload,omitempty"`    // 消息内容
	Timestamp int64       `json:"timestamp"`            // 时间戳（毫秒）
	MessageID string      `json:"message_id,omitempty"` // 消息ID，用于追踪
}

// NewMessage 创建新消息
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		MessageID: util.GenerateRequestID(),
	}
}

// MessageCreatedPayload 新消息 Payload
type MessageCreatedPayload struct {
	SessionID int64                     `json:"session_id"`
	Messages  []service.MessageResponse `json:"messages"`
}

// ErrorPayload 错误 Payload
type ErrorPayload struct {
	Message string `json:"message"`
}
