package router

import (
	"net/http"
	"time"

	"notehub/internal/handlers"
	"notehub/internal/middleware"
	"notehub/internal/services"
	"notehub/pkg/config"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestID())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	auth := middleware.NewAuthMiddleware()
	limiter := middleware.NewRateLimiter()

	// 健康检查接口
	router.GET("/health", healthCheck)

	// API路由组
	api := router.Group("/api")
	api.Use(limiter.Limit())
	{
		userService := services.NewUserService()
		tenantService := services.NewTenantService()
		noteService := services.NewNoteService()

		// 认证路由
		authHandler := handlers.NewAuthHandler(userService, noteService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", limiter.LimitAuth(), authHandler.Login) // 用户登录

			authGroup.GET("/profile", auth.RequireLogin(), auth.RequireMember(), authHandler.Profile)
			authGroup.PUT("/profile", auth.RequireLogin(), auth.RequireMember(), authHandler.UpdateProfile)
			authGroup.POST("/change-password", auth.RequireLogin(), auth.RequireMember(), authHandler.ChangePassword)

			// 用户管理（仅管理员）
			authGroup.POST("/invite", auth.RequireLogin(), auth.RequireAdmin(), authHandler.Invite)
			authGroup.GET("/users", auth.RequireLogin(), auth.RequireAdmin(), authHandler.GetUsers)
		}

		// 笔记路由（租户隔离由服务层查询范围保证）
		noteHandler := handlers.NewNoteHandler(noteService, tenantService)
		notes := api.Group("/notes")
		notes.Use(auth.RequireLogin(), auth.RequireMember())
		{
			notes.POST("", noteHandler.Create)
			notes.GET("", noteHandler.List)
			notes.GET("/stats", noteHandler.Stats)
			notes.GET("/:id", noteHandler.Get)
			notes.PUT("/:id", noteHandler.Update)
			notes.DELETE("/:id", noteHandler.Delete)
		}

		// 租户路由
		tenantHandler := handlers.NewTenantHandler(tenantService, noteService)
		tenants := api.Group("/tenants")
		tenants.Use(auth.RequireLogin(), auth.RequireMember())
		{
			tenants.GET("/current", tenantHandler.GetCurrent)
			tenants.GET("/subscription", tenantHandler.GetSubscription)
			tenants.PUT("/settings", auth.RequireAdmin(), tenantHandler.UpdateSettings)

			// 升级要求slug与调用者租户一致
			tenants.POST("/:slug/upgrade", auth.RequireAdmin(), auth.RequireTenantSlug(), tenantHandler.Upgrade)
		}
	}
}

// healthCheck 健康检查
func healthCheck(c *gin.Context) {
	cfg := config.GetConfig()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": cfg.Server.Env,
		"version":     "1.0.0",
	})
}
