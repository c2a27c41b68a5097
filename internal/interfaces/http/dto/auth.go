// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"lumen-lms-api/internal/domain/entity"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=128"`
	// TenantSubdomain 注册时加入的租户
	TenantSubdomain string `json:"tenant_subdomain" binding:"required"`
	// Role 申请的角色，默认 student；teacher 需要后续审批
	Role string `json:"role,omitempty"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// TenantSubdomain 可选：指定登录进入的租户，缺省用确定性默认值
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
}

// RefreshRequest 刷新请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	// TenantID 可选：非空时刷新的同时切换到该租户
	TenantID string `json:"tenant_id,omitempty"`
}

// SwitchTenantRequest 切换租户请求
type SwitchTenantRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	TenantID     string `json:"tenant_id" binding:"required"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResponse 认证成功响应
type AuthResponse struct {
	User   *UserResponse `json:"user"`
	Tenant *TenantBrief  `json:"tenant"`
	Role   string        `json:"role"`
	Token  TokenResponse `json:"token"`
}

// UserResponse 用户视图
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
}

// NewUserResponse 从实体构建用户视图
func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLoginAt,
	}
}

// MembershipResponse 成员关系视图
type MembershipResponse struct {
	TenantID        string    `json:"tenant_id"`
	TenantName      string    `json:"tenant_name,omitempty"`
	TenantSubdomain string    `json:"tenant_subdomain,omitempty"`
	Role            string    `json:"role"`
	TeacherApproval string    `json:"teacher_approval"`
	JoinedAt        time.Time `json:"joined_at"`
}

// MembershipListResponse 成员关系列表
type MembershipListResponse struct {
	Memberships []*MembershipResponse `json:"memberships"`
}
