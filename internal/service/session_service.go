package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"govchat-server/internal/model"
	"govchat-server/internal/repository"
)

// ChatNotifier 会话事件通知接口
// 由 WebSocket Hub 实现，服务层只依赖接口
type ChatNotifier interface {
	NotifySessionCreated(userID int64, session *SessionResponse)
	NotifyMessageCreated(userID int64, messages ...MessageResponse)
}

// 会话服务相关错误
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoPermission    = errors.New("no permission to access this session")
	ErrInvalidSender   = errors.New("sender must be user or bot")
	ErrEmptyMessage    = errors.New("message content is required")
)

// SessionService 会话服务
// 管理会话列表、消息历史和会话的最后活动信息
type SessionService struct {
	store    *repository.Store
	notifier ChatNotifier
	now      func() time.Time
	log      *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(store *repository.Store, log *zap.Logger) *SessionService {
	return &SessionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

// SetNotifier 设置通知器
func (s *SessionService) SetNotifier(n ChatNotifier) {
	s.notifier = n
}

// SetClock 替换时间来源
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// SessionResponse 会话响应
type SessionResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	LastMessage *string   `json:"last_message"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Title string `json:"title" binding:"required,max=255"` // 会话标题
}

// ListSessions 获取用户的会话列表
// 最近活动的会话在前
func (s *SessionService) ListSessions(ctx context.Context, userID int64) ([]SessionResponse, error) {
	sessions, err := s.store.Sessions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	return result, nil
}

// CreateSession 创建新会话
// 参数:
//   - ctx: 上下文
//   - userID: 会话所属用户
//   - req: 创建请求
//
// 返回:
//   - *SessionResponse: 新会话，消息历史为空
//   - error: 用户不存在返回 ErrUserNotFound
func (s *SessionService) CreateSession(ctx context.Context, userID int64, req *CreateSessionRequest) (*SessionResponse, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	session := &model.ChatSession{
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	resp := toSessionResponse(session)
	if s.notifier != nil {
		s.notifier.NotifySessionCreated(userID, &resp)
	}
	return &resp, nil
}

// ListMessages 获取会话的消息历史
// 参数:
//   - ctx: 上下文
//   - userID: 当前用户，必须是会话所有者
//   - sessionID: 会话ID
//
// 返回:
//   - []MessageResponse: 按时间正序排列的消息
//   - error: ErrSessionNotFound / ErrNoPermission
func (s *SessionService) ListMessages(ctx context.Context, userID, sessionID int64) ([]MessageResponse, error) {
	if _, err := s.ownedSession(ctx, s.store, userID, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.store.Messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, toMessageResponse(&messages[i]))
	}
	return result, nil
}

// AppendMessage 向会话追加一条消息，时间戳取当前时间
// 返回:
//   - *MessageResponse: 新消息
//   - error: ErrInvalidSender / ErrSessionNotFound
func (s *SessionService) AppendMessage(ctx context.Context, sessionID int64, sender, content string) (*MessageResponse, error) {
	msg, err := s.appendMessage(ctx, s.store, sessionID, sender, content, s.now())
	if err != nil {
		return nil, err
	}
	resp := toMessageResponse(msg)
	return &resp, nil
}

// TouchSession 更新会话的最后一条消息和活动时间
// updated_at 不会早于原值；会话不存在时返回 ErrSessionNotFound
func (s *SessionService) TouchSession(ctx context.Context, sessionID int64, lastMessage string, at time.Time) error {
	return s.touch(ctx, s.store, sessionID, lastMessage, at)
}

// ownedSession 加载会话并校验所有权
func (s *SessionService) ownedSession(ctx context.Context, store *repository.Store, userID, sessionID int64) (*model.ChatSession, error) {
	session, err := store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrNoPermission
	}
	return session, nil
}

func (s *SessionService) appendMessage(ctx context.Context, store *repository.Store, sessionID int64, sender, content string, at time.Time) (*model.Message, error) {
	if !model.ValidSender(sender) {
		return nil, ErrInvalidSender
	}

	session, err := store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	msg := &model.Message{
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		Timestamp: at,
	}
	if err := store.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("append %s message: %w", sender, err)
	}
	return msg, nil
}

func (s *SessionService) touch(ctx context.Context, store *repository.Store, sessionID int64, lastMessage string, at time.Time) error {
	rows, err := store.Sessions.Touch(ctx, sessionID, lastMessage, at)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// MySQL 默认只统计值真正改变的行，内容和时间都未变化时也会返回 0
	session, err := store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return nil
}

func toSessionResponse(session *model.ChatSession) SessionResponse {
	return SessionResponse{
		ID:          session.ID,
		Title:       session.Title,
		LastMessage: session.LastMessage,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

func toMessageResponse(msg *model.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}
