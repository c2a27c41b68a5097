// Package entity 定义领域实体
package entity

import (
	"regexp"
	"time"
)

// TenantPlan 租户订阅套餐
type TenantPlan string

const (
	TenantPlanBasic      TenantPlan = "basic"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

// TenantStatus 租户状态
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// TenantSettings 租户设置
type TenantSettings struct {
	AllowPublicRegistration bool   `json:"allow_public_registration"`
	DefaultLanguage         string `json:"default_language,omitempty"`
}

// Tenant 租户实体
// Subdomain 创建后不可变；停用通过 Status 软标记，存在成员时不允许删除
type Tenant struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(128);not null"`
	Subdomain string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Plan      TenantPlan     `json:"plan" gorm:"type:varchar(16);not null;default:'basic'"`
	Status    TenantStatus   `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	Settings  TenantSettings `json:"settings" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NewTenant 创建新租户
func NewTenant(name, subdomain string, plan TenantPlan) *Tenant {
	now := time.Now()
	return &Tenant{
		Name:      name,
		Subdomain: subdomain,
		Plan:      plan,
		Status:    TenantStatusActive,
		Settings:  TenantSettings{AllowPublicRegistration: true},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 检查租户是否活跃
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// ValidSubdomain 校验子域名格式（小写 slug）
func ValidSubdomain(s string) bool {
	return subdomainPattern.MatchString(s)
}

// ValidPlan 校验套餐标签
func ValidPlan(p TenantPlan) bool {
	switch p {
	case TenantPlanBasic, TenantPlanPro, TenantPlanEnterprise:
		return true
	}
	return false
}
