// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"lumen-lms-api/internal/domain/entity"
)

// CreateTenantRequest 创建租户请求
type CreateTenantRequest struct {
	Name      string `json:"name" binding:"required,max=128"`
	Subdomain string `json:"subdomain" binding:"required,max=63"`
	Plan      string `json:"plan,omitempty"`
}

// UpdateTenantStatusRequest 更新租户状态请求
type UpdateTenantStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// TenantBrief 租户简要视图（嵌入认证响应）
type TenantBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Plan      string `json:"plan"`
}

// NewTenantBrief 从实体构建简要视图
func NewTenantBrief(t *entity.Tenant) *TenantBrief {
	return &TenantBrief{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Plan:      string(t.Plan),
	}
}

// TenantResponse 租户完整视图
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTenantResponse 从实体构建租户视图
func NewTenantResponse(t *entity.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Plan:      string(t.Plan),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}

// TenantListResponse 租户列表
type TenantListResponse struct {
	Tenants []*TenantResponse `json:"tenants"`
}
