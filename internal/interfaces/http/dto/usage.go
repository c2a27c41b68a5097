// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/domain/service"
)

// UsageResponse 当前月度用量响应
type UsageResponse struct {
	TenantID string            `json:"tenant_id"`
	UserID   string            `json:"user_id"`
	Stats    *quota.UsageStats `json:"stats"`
}

// RateUsageResponse 当前限流窗口计数响应
type RateUsageResponse struct {
	Limits service.RateLimits `json:"limits"`
	Usage  service.RateUsage  `json:"usage"`
}

// UsageHistoryItem 历史月度用量条目
type UsageHistoryItem struct {
	Month string            `json:"month"`
	Stats *quota.UsageStats `json:"stats"`
}

// UsageHistoryResponse 历史月度用量响应
type UsageHistoryResponse struct {
	Items []*UsageHistoryItem `json:"items"`
}
