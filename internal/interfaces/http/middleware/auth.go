// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"

	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/pkg/logger"
	"lumen-lms-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Auth 认证中间件
// 解析 Bearer AccessToken，注入租户作用域身份到请求上下文。
// 只做密码学校验；成员关系的新鲜度由 TenantGuard 把关
func Auth(tokenService *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := tokenService.Validate(parts[1])
		if err != nil {
			msg := "invalid token"
			if err == utils.ErrExpiredToken {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		// 注入身份到 Gin Context
		c.Set("tenant_id", claims.TenantID)
		c.Set("tenant_subdomain", claims.TenantSubdomain)
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		// 同步到请求 Context，供日志与仓储层使用
		ctx := logger.WithContext(c.Request.Context(), logger.TenantIDKey, claims.TenantID)
		ctx = logger.WithContext(ctx, logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     401,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
