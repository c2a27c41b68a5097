// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"

	"github.com/gin-gonic/gin"
)

const (
	// ContextTenant 当前租户实体在 Gin Context 中的键
	ContextTenant = "tenant"
	// ContextMembership 当前成员关系在 Gin Context 中的键
	ContextMembership = "membership"
)

// TenantGuard 租户防卫中间件
// Token 只证明签发时刻的成员关系；这里按请求回查租户与成员关系，
// 让租户停用和成员撤销在下一次请求即刻生效
func TenantGuard(tenantRepo repository.TenantRepository, membershipRepo repository.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		userID := c.GetString("user_id")
		if tenantID == "" || userID == "" {
			abortUnauthorized(c, "missing tenant context")
			return
		}

		tenant, err := tenantRepo.GetByID(c.Request.Context(), tenantID)
		if err != nil {
			abortError(c, http.StatusInternalServerError, "failed to load tenant", "")
			return
		}
		if tenant == nil {
			abortError(c, http.StatusForbidden, "tenant not found", "tenant_not_found")
			return
		}
		if !tenant.IsActive() {
			abortError(c, http.StatusForbidden, "tenant is suspended", "tenant_not_found")
			return
		}

		membership, err := membershipRepo.GetByUserAndTenant(c.Request.Context(), userID, tenantID)
		if err != nil {
			abortError(c, http.StatusInternalServerError, "failed to load membership", "")
			return
		}
		if membership == nil || !membership.IsActive() {
			abortError(c, http.StatusForbidden, "not a member of tenant", "not_a_member")
			return
		}

		c.Set(ContextTenant, tenant)
		c.Set(ContextMembership, membership)
		// 角色以数据库中的最新值为准，覆盖 Token 声明
		c.Set("role", string(membership.Role))

		c.Next()
	}
}

// TenantFromGin 取出 TenantGuard 注入的租户实体
func TenantFromGin(c *gin.Context) *entity.Tenant {
	if v, ok := c.Get(ContextTenant); ok {
		if t, ok := v.(*entity.Tenant); ok {
			return t
		}
	}
	return nil
}

// MembershipFromGin 取出 TenantGuard 注入的成员关系
func MembershipFromGin(c *gin.Context) *entity.Membership {
	if v, ok := c.Get(ContextMembership); ok {
		if m, ok := v.(*entity.Membership); ok {
			return m
		}
	}
	return nil
}

// abortError 终止请求并返回带 error_type 的错误响应
func abortError(c *gin.Context, status int, msg, errorType string) {
	body := gin.H{
		"code":     status,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	}
	if errorType != "" {
		body["error"] = gin.H{"error_type": errorType}
	}
	c.AbortWithStatusJSON(status, body)
}
