package bootstrap

import (
	"github.com/gin-gonic/gin"

	"govchat-server/internal/middleware"
)

// Router 创建 Gin 引擎并注册所有路由
// 每个接口同时挂载在根路径和 /api 下
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 全局中间件
	router.Use(middleware.RecoveryMiddleware(a.Log))            // 恢复 panic
	router.Use(middleware.LoggerMiddleware(a.Log))              // 请求日志
	router.Use(middleware.CORSMiddleware(a.Config.Server.CORS)) // CORS

	a.registerRoutes(router)
	a.registerRoutes(router.Group("/api"))
	return router
}

// registerRoutes 在给定路由组下注册接口
func (a *App) registerRoutes(r gin.IRouter) {
	auth := middleware.AuthMiddleware(a.JWT, a.Blacklist)

	// 健康检查
	r.GET("/health", a.healthHandler.Health)

	// 认证相关（无需登录）
	r.POST("/signup", a.authHandler.Signup)
	r.POST("/login", a.authHandler.Login)
	r.POST("/refresh", a.authHandler.RefreshToken)
	r.POST("/logout", auth, a.authHandler.Logout)

	// 用户相关
	r.GET("/users/me", auth, a.userHandler.GetProfile)

	// 会话相关
	sessions := r.Group("/sessions")
	sessions.Use(auth)
	{
		sessions.GET("", a.sessionHandler.ListSessions)
		sessions.POST("", a.sessionHandler.CreateSession)
		sessions.GET("/:id", a.sessionHandler.ListMessages)
		sessions.POST("/:id/msg", a.sessionHandler.SendMessage)
	}

	r.POST("/chat", auth, a.chatHandler.Chat)

	// WebSocket 使用 query 中的 token 认证
	r.GET("/ws", a.wsHandler.HandleWS)
}
