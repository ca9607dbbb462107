// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// User 用户模型
// 对应数据库表 users
// 邮箱在写入前统一规范化为小写，作为登录凭证
type User struct {
	// ID 用户唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Name 显示名称
	Name string `gorm:"size:150;not null" json:"name"`

	// Email 登录邮箱，全局唯一
	Email string `gorm:"size:150;uniqueIndex;not null" json:"email"`

	// PasswordHash 密码的 bcrypt 哈希值，不对外暴露
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Sessions 用户的聊天会话（一对多关系）
	// 仅用于建立外键约束，不随用户一起加载
	Sessions []ChatSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
