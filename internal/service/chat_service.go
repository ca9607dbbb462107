package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"govchat-server/internal/model"
	"govchat-server/internal/repository"
	"govchat-server/pkg/util"
)

// DefaultSessionTitle 通过 /chat 发送消息且用户没有会话时自动创建的会话标题
const DefaultSessionTitle = "New Chat"

// 日志中消息内容预览的最大字符数
const logPreviewLen = 40

// ChatService 聊天编排服务
// 负责一次完整的发送流程：用户消息、机器人回复、会话更新
type ChatService struct {
	store     *repository.Store
	sessions  *SessionService
	responder Responder
	log       *zap.Logger
}

// NewChatService 创建 ChatService 实例
func NewChatService(store *repository.Store, sessions *SessionService, responder Responder, log *zap.Logger) *ChatService {
	return &ChatService{
		store:     store,
		sessions:  sessions,
		responder: responder,
		log:       log,
	}
}

// SendMessageRequest 发送消息请求
// content 与 message 二选一，兼容两种客户端
type SendMessageRequest struct {
	Content string `json:"content"`
	Message string `json:"message"`
}

// Text 返回请求中的消息内容
func (r *SendMessageRequest) Text() string {
	if strings.TrimSpace(r.Content) != "" {
		return r.Content
	}
	return r.Message
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	SessionID   int64           `json:"session_id"`
	UserMessage MessageResponse `json:"user_message"`
	BotMessage  MessageResponse `json:"bot_message"`
	BotResponse string          `json:"bot_response"`
	Reply       string          `json:"reply"` // 与 bot_response 相同，兼容 /chat 客户端
}

// SendMessage 在会话中发送一条消息并获取机器人回复
// 用户消息、机器人消息和会话更新在同一个事务中提交，任一步失败全部回滚
// 参数:
//   - ctx: 上下文
//   - userID: 当前用户
//   - sessionID: 目标会话
//   - content: 消息内容
//
// 返回:
//   - *SendMessageResponse: 两条消息和回复文本
//   - error: ErrEmptyMessage / ErrSessionNotFound / ErrNoPermission / 存储错误
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID int64, content string) (*SendMessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := s.sessions.ownedSession(ctx, s.store, userID, sessionID); err != nil {
		return nil, err
	}

	userAt := s.sessions.now()
	// 外部调用放在事务之外，慢响应不会长时间占用事务
	reply := s.responder.Respond(ctx, content)
	botAt := s.sessions.now()
	if botAt.Before(userAt) {
		botAt = userAt
	}

	var userMsg, botMsg *model.Message
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if userMsg, err = s.sessions.appendMessage(ctx, tx, sessionID, model.SenderUser, content, userAt); err != nil {
			return err
		}
		if botMsg, err = s.sessions.appendMessage(ctx, tx, sessionID, model.SenderBot, reply, botAt); err != nil {
			return err
		}
		return s.sessions.touch(ctx, tx, sessionID, content, botAt)
	})
	if err != nil {
		s.log.Error("send message failed",
			zap.Int64("user_id", userID),
			zap.Int64("session_id", sessionID),
			zap.String("preview", util.TruncateString(content, logPreviewLen)),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Debug("message sent",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", sessionID),
		zap.String("preview", util.TruncateString(content, logPreviewLen)),
	)

	resp := &SendMessageResponse{
		SessionID:   sessionID,
		UserMessage: toMessageResponse(userMsg),
		BotMessage:  toMessageResponse(botMsg),
		BotResponse: reply,
		Reply:       reply,
	}
	if s.sessions.notifier != nil {
		s.sessions.notifier.NotifyMessageCreated(userID, resp.UserMessage, resp.BotMessage)
	}
	return resp, nil
}

// Chat 向用户最近活动的会话发送消息
// 用户还没有会话时自动创建一个
func (s *ChatService) Chat(ctx context.Context, userID int64, content string) (*SendMessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	latest, err := s.store.Sessions.GetLatestByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessionID := int64(0)
	if latest != nil {
		sessionID = latest.ID
	} else {
		created, err := s.sessions.CreateSession(ctx, userID, &CreateSessionRequest{Title: DefaultSessionTitle})
		if err != nil {
			return nil, err
		}
		sessionID = created.ID
	}

	return s.SendMessage(ctx, userID, sessionID, content)
}
