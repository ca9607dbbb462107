package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"govchat-server/internal/model"
)

// SessionRepository 会话数据访问层
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建新会话
// 参数:
//   - ctx: 上下文
//   - session: 会话对象，ID 和时间字段会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *SessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID 根据 ID 获取会话
// 返回:
//   - *model.ChatSession: 会话对象，未找到返回 nil
//   - error: 数据库错误
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListByUserID 获取用户的所有会话
// 按最后活动时间倒序，时间相同时新建的在前
func (r *SessionRepository) ListByUserID(ctx context.Context, userID int64) ([]model.ChatSession, error) {
	sessions := make([]model.ChatSession, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	return sessions, err
}

// GetLatestByUserID 获取用户最近活动的会话
// 没有会话时返回 nil
func (r *SessionRepository) GetLatestByUserID(ctx context.Context, userID int64) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Touch 更新会话的最后一条消息和活动时间
// updated_at 取 at 与原值中较大者，不会回退
// 参数:
//   - ctx: 上下文
//   - id: 会话ID
//   - lastMessage: 最后一条消息内容
//   - at: 本次活动时间
//
// 返回:
//   - int64: 受影响的行数；MySQL 未开启 clientFoundRows 时，值未变化的行不计入
//   - error: 数据库错误
func (r *SessionRepository) Touch(ctx context.Context, id int64, lastMessage string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message": lastMessage,
			"updated_at":   gorm.Expr("CASE WHEN updated_at > ? THEN updated_at ELSE ? END", at, at),
		})
	return result.RowsAffected, result.Error
}
