package service

import (
	"context"

	"govchat-server/internal/repository"
)

// UserService 用户服务
type UserService struct {
	users *repository.UserRepository // 用户数据访问层
}

// NewUserService 创建 UserService 实例
func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile 获取用户资料
// 参数:
//   - ctx: 上下文
//   - userID: 用户ID
//
// 返回:
//   - *UserSummary: 用户信息
//   - error: 用户不存在返回 ErrUserNotFound
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	summary := toUserSummary(user)
	return &summary, nil
}
