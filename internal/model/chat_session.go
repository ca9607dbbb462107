package model

import (
	"time"
)

// ChatSession 聊天会话模型
// 对应数据库表 chat_sessions
// 一个用户可以有多个会话，每个会话包含有序的消息历史
type ChatSession struct {
	// ID 会话唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// UserID 所属用户ID，外键关联 users.id
	UserID int64 `gorm:"index;not null" json:"user_id"`

	// Title 会话标题
	Title string `gorm:"size:255;not null" json:"title"`

	// LastMessage 最近一次发送的消息内容，首次发送前为 NULL
	LastMessage *string `gorm:"type:text" json:"last_message"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 最后活动时间，会话列表按此字段倒序排列
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`

	// Messages 会话中的所有消息（一对多关系）
	Messages []Message `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}
