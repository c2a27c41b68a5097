// Package router 提供 HTTP 路由配置
package router

import (
	"lumen-lms-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
// 认证路由公开；其余路由要求 AccessToken，且经 TenantGuard
// 按请求回查租户与成员关系的新鲜度
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers, g Guards) {
	// 认证管理（公开端点 + 需登录的端点）
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/switch-tenant", h.Auth.SwitchTenant)
		authGroup.POST("/logout", h.Auth.Logout)

		authGroup.GET("/memberships", middleware.Auth(g.Tokens), h.Auth.Memberships)
	}

	authed := v1.Group("")
	authed.Use(middleware.Auth(g.Tokens))
	authed.Use(middleware.TenantGuard(g.TenantRepo, g.MembershipRepo))

	// 租户管理
	tenants := authed.Group("/tenants")
	{
		tenants.POST("", middleware.RequireAdmin(), h.Tenant.Create)
		tenants.GET("", h.Tenant.List)
		tenants.GET("/:id", h.Tenant.Get)
		tenants.PATCH("/:id/status", middleware.RequireAdmin(), h.Tenant.UpdateStatus)
	}

	// AI 功能
	ai := authed.Group("/ai")
	{
		ai.POST("/chat", h.AI.Chat)
		ai.POST("/summarize", h.AI.Summarize)
		ai.POST("/quiz", middleware.RequireQuizAuthor(), h.AI.Quiz)
	}

	// 用量 introspection
	usage := authed.Group("/usage")
	{
		usage.GET("/quota", h.Usage.Quota)
		usage.GET("/rate-limit", h.Usage.RateLimit)
		usage.GET("/history", h.Usage.History)
	}
}
