// Package service 提供业务逻辑层的实现
// 服务层封装具体的业务逻辑，协调 Repository、Cache 和外部依赖
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"govchat-server/internal/cache"
	"govchat-server/internal/model"
	"govchat-server/internal/repository"
	"govchat-server/pkg/jwt"
	"govchat-server/pkg/util"
)

// 定义业务错误
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// bcrypt 只接受最多 72 字节的密码
const maxPasswordBytes = 72

// AuthService 认证服务
// 处理用户注册、登录、登出以及 Token 刷新
type AuthService struct {
	users      *repository.UserRepository // 用户数据访问层
	blacklist  cache.TokenBlacklist       // Token 黑名单
	jwtService *jwt.JWTService            // JWT 服务
	log        *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	users *repository.UserRepository,
	blacklist cache.TokenBlacklist,
	jwtService *jwt.JWTService,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		blacklist:  blacklist,
		jwtService: jwtService,
		log:        log,
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=150"`           // 显示名称
	Email    string `json:"email" binding:"required,email,max=150"`    // 登录邮箱
	Password string `json:"password" binding:"required,min=1,max=72"` // 密码，bcrypt 最多使用 72 字节
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // 登录邮箱
	Password string `json:"password" binding:"required"` // 密码
}

// UserSummary 对外展示的用户信息
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Token            string      `json:"token"`              // 访问令牌
	RefreshToken     string      `json:"refresh_token"`      // 刷新令牌
	ExpiresIn        int64       `json:"expires_in"`         // 访问令牌过期时间（秒）
	RefreshExpiresIn int64       `json:"refresh_expires_in"` // 刷新令牌过期时间（秒）
	User             UserSummary `json:"user"`               // 用户信息
}

// RefreshTokenResponse 刷新 Token 响应
type RefreshTokenResponse struct {
	Token     string `json:"token"`      // 新的访问令牌
	ExpiresIn int64  `json:"expires_in"` // 过期时间（秒）
}

// Signup 用户注册
// 注册成功后直接签发 Token，客户端无需再次登录
// 参数:
//   - ctx: 上下文
//   - req: 注册请求
//
// 返回:
//   - *AuthResponse: 用户信息和 Token
//   - error: 邮箱已注册返回 ErrEmailExists，密码超过 72 字节返回 ErrPasswordTooLong
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	// binding 标签按字符计数，多字节密码需要再按字节检查
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	email := util.NormalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.log.Info("user signed up", zap.Int64("user_id", user.ID))
	return s.issueTokens(user)
}

// Login 用户登录
// 邮箱不存在和密码错误返回同一个错误，避免泄露账号是否存在
// 参数:
//   - ctx: 上下文
//   - req: 登录请求
//
// 返回:
//   - *AuthResponse: 登录成功返回 Token 和用户信息
//   - error: 凭证错误返回 ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, util.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !util.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Logout 用户登出
// 将当前 Token 的哈希加入黑名单，直到其原本的过期时间
func (s *AuthService) Logout(ctx context.Context, token string, expireAt time.Time) error {
	return s.blacklist.BlacklistToken(ctx, util.HashToken(token), expireAt)
}

// RefreshToken 使用 Refresh Token 换取新的 Access Token
// 返回:
//   - *RefreshTokenResponse: 新的 Token
//   - error: Token 无效返回 jwt.ErrInvalidToken / jwt.ErrExpiredToken，用户已删除返回 ErrUserNotFound
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*RefreshTokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &RefreshTokenResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtService.GetAccessExpire().Seconds()),
	}, nil
}

func (s *AuthService) issueTokens(user *model.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:            accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        int64(s.jwtService.GetAccessExpire().Seconds()),
		RefreshExpiresIn: int64(s.jwtService.GetRefreshExpire().Seconds()),
		User:             toUserSummary(user),
	}, nil
}

func toUserSummary(user *model.User) UserSummary {
	return UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
}
