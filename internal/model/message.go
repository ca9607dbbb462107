package model

import (
	"time"
)

// 消息发送方
const (
	SenderUser = "user" // 用户发送的消息
	SenderBot  = "bot"  // 机器人回复
)

// ValidSender 判断发送方是否合法
func ValidSender(sender string) bool {
	return sender == SenderUser || sender == SenderBot
}

// Message 消息模型
// 对应数据库表 messages
// 会话内按 (timestamp, id) 升序排列
type Message struct {
	// ID 消息唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// SessionID 所属会话ID，外键关联 chat_sessions.id
	SessionID int64 `gorm:"index;not null" json:"session_id"`

	// Sender 发送方: user / bot
	Sender string `gorm:"size:10;not null;check:sender IN ('user','bot')" json:"sender"`

	// Content 消息内容
	Content string `gorm:"type:text;not null" json:"content"`

	// Timestamp 消息时间，由服务层显式写入
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}
