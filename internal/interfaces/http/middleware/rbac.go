// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"lumen-lms-api/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// RequireRole 角色检查中间件
// 当前用户的租户内角色必须是指定角色之一，否则返回 403
func RequireRole(roles ...entity.MemberRole) gin.HandlerFunc {
	roleSet := make(map[entity.MemberRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		roleStr := c.GetString("role")
		if roleStr == "" {
			abortForbidden(c, "missing role in context")
			return
		}
		if !roleSet[entity.MemberRole(roleStr)] {
			abortForbidden(c, "role not allowed")
			return
		}
		c.Next()
	}
}

// RequireAdmin 管理员检查中间件（便捷方法）
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(entity.MemberRoleAdmin)
}

// RequireQuizAuthor 测验生成权限检查
// 仅管理员或已通过审批的教师可生成测验；角色为教师但未过审的一律拒绝
func RequireQuizAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := MembershipFromGin(c)
		if membership == nil || !membership.CanAuthorQuizzes() {
			abortForbidden(c, "quiz generation requires admin or approved teacher")
			return
		}
		c.Next()
	}
}

// abortForbidden 终止请求并返回 403
func abortForbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"code":     403,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
