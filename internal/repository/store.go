package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store 聚合所有仓库，并提供事务作用域
// 事务内部通过 tx 上的仓库访问数据，保证在同一连接上执行
type Store struct {
	db       *gorm.DB
	Users    *UserRepository
	Sessions *SessionRepository
	Messages *MessageRepository
}

// NewStore 基于数据库连接创建 Store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Sessions: NewSessionRepository(db),
		Messages: NewMessageRepository(db),
	}
}

// Transaction 在单个数据库事务中执行 fn
// fn 返回错误或发生 panic 时，事务内的所有写入都会回滚
// 参数:
//   - ctx: 上下文
//   - fn: 事务内执行的操作，只能使用传入的 tx
//
// 返回:
//   - error: fn 的错误或提交错误
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping 检查数据库连接是否可用
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// DB 返回底层数据库连接
func (s *Store) DB() *gorm.DB {
	return s.db
}
