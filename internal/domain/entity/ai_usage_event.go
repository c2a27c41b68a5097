// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AIUsageEvent 单次 AI 调用的审计流水
// 只追加，不修改；供账单核对与用量分析
type AIUsageEvent struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID         string          `json:"tenant_id" gorm:"type:uuid;index;not null"`
	UserID           string          `json:"user_id" gorm:"type:uuid;index;not null"`
	Feature          AIFeature       `json:"feature" gorm:"type:varchar(16);not null"`
	Provider         string          `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string          `json:"model" gorm:"type:varchar(64);not null"`
	TokensPrompt     int             `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCompletion int             `json:"tokens_completion" gorm:"not null;default:0"`
	Cost             decimal.Decimal `json:"cost" gorm:"type:numeric(12,4);not null;default:0"`
	DurationMs       int             `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (AIUsageEvent) TableName() string {
	return "ai_usage_events"
}
