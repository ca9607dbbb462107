// Package bootstrap 负责组装应用的所有依赖并注册路由
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"govchat-server/internal/cache"
	"govchat-server/internal/config"
	"govchat-server/internal/database"
	"govchat-server/internal/handler"
	"govchat-server/internal/repository"
	"govchat-server/internal/service"
	"govchat-server/internal/websocket"
	"govchat-server/pkg/jwt"
)

// App 应用容器
// 持有所有长生命周期的依赖，由调用方负责 Close
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Store     *repository.Store
	Blacklist cache.TokenBlacklist
	JWT       *jwt.JWTService
	Hub       *websocket.Hub

	AuthService    *service.AuthService
	UserService    *service.UserService
	SessionService *service.SessionService
	ChatService    *service.ChatService

	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	sessionHandler *handler.SessionHandler
	chatHandler    *handler.ChatHandler
	healthHandler  *handler.HealthHandler
	wsHandler      *websocket.Handler
}

// New 根据配置创建应用
// 会打开数据库连接并执行迁移，Hub 需要调用方通过 Hub.Run 启动
// 参数:
//   - cfg: 已校验的配置
//   - log: 根日志
//
// 返回:
//   - *App: 应用容器
//   - error: 数据库、缓存或机器人配置错误
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	blacklist, err := cache.New(cfg)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}

	responder, err := service.NewResponder(cfg.Bot, log)
	if err != nil {
		blacklist.Close()
		closeDB(db)
		return nil, err
	}

	return newApp(cfg, log, db, blacklist, responder), nil
}

func newApp(cfg *config.Config, log *zap.Logger, db *gorm.DB, blacklist cache.TokenBlacklist, responder service.Responder) *App {
	store := repository.NewStore(db)
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpire, cfg.JWT.RefreshExpire)
	hub := websocket.NewHub(log)

	authService := service.NewAuthService(store.Users, blacklist, jwtService, log)
	userService := service.NewUserService(store.Users)
	sessionService := service.NewSessionService(store, log)
	sessionService.SetNotifier(hub)
	chatService := service.NewChatService(store, sessionService, responder, log)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Store:     store,
		Blacklist: blacklist,
		JWT:       jwtService,
		Hub:       hub,

		AuthService:    authService,
		UserService:    userService,
		SessionService: sessionService,
		ChatService:    chatService,

		authHandler:    handler.NewAuthHandler(authService),
		userHandler:    handler.NewUserHandler(userService),
		sessionHandler: handler.NewSessionHandler(sessionService, chatService),
		chatHandler:    handler.NewChatHandler(chatService),
		healthHandler:  handler.NewHealthHandler(store),
		wsHandler:      websocket.NewHandler(hub, jwtService, blacklist),
	}
}

// Close 释放缓存和数据库连接
func (a *App) Close() error {
	var firstErr error
	if err := a.Blacklist.Close(); err != nil {
		firstErr = fmt.Errorf("close cache: %w", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
