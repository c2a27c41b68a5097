// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AIFeature 计费的 AI 功能类型
type AIFeature string

const (
	AIFeatureChat    AIFeature = "chat"
	AIFeatureSummary AIFeature = "summary"
	AIFeatureQuiz    AIFeature = "quiz"
)

// AIFeatures 全部计费功能
var AIFeatures = []AIFeature{AIFeatureChat, AIFeatureSummary, AIFeatureQuiz}

// MonthBucket 月度桶格式
const MonthBucketLayout = "2006-01"

// MonthBucketOf 将时间换算为月度桶（UTC）
func MonthBucketOf(t time.Time) string {
	return t.UTC().Format(MonthBucketLayout)
}

// FeatureUsage 单个功能的用量与上限
// Limit 为 0 表示不限量
type FeatureUsage struct {
	Used        int   `json:"used"`
	Limit       int   `json:"limit"`
	TokensUsed  int64 `json:"tokens_used"`
	TokensLimit int64 `json:"tokens_limit"`
}

// UsageQuota 月度配额记录
// 按 (user_id, tenant_id, month) 唯一；首次使用时懒创建，不随月份清零，
// 旧记录保留用于账单审计。计数只增不减
type UsageQuota struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID   string `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_usage_quotas_bucket"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_usage_quotas_bucket"`
	Month    string `json:"month" gorm:"type:char(7);not null;uniqueIndex:idx_usage_quotas_bucket"`

	ChatUsed        int   `json:"chat_used" gorm:"not null;default:0"`
	ChatLimit       int   `json:"chat_limit" gorm:"not null;default:0"`
	ChatTokensUsed  int64 `json:"chat_tokens_used" gorm:"not null;default:0"`
	ChatTokensLimit int64 `json:"chat_tokens_limit" gorm:"not null;default:0"`

	SummaryUsed        int   `json:"summary_used" gorm:"not null;default:0"`
	SummaryLimit       int   `json:"summary_limit" gorm:"not null;default:0"`
	SummaryTokensUsed  int64 `json:"summary_tokens_used" gorm:"not null;default:0"`
	SummaryTokensLimit int64 `json:"summary_tokens_limit" gorm:"not null;default:0"`

	QuizUsed        int   `json:"quiz_used" gorm:"not null;default:0"`
	QuizLimit       int   `json:"quiz_limit" gorm:"not null;default:0"`
	QuizTokensUsed  int64 `json:"quiz_tokens_used" gorm:"not null;default:0"`
	QuizTokensLimit int64 `json:"quiz_tokens_limit" gorm:"not null;default:0"`

	CostUsed  decimal.Decimal `json:"cost_used" gorm:"type:numeric(12,4);not null;default:0"`
	CostLimit decimal.Decimal `json:"cost_limit" gorm:"type:numeric(12,4);not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UsageQuota) TableName() string {
	return "usage_quotas"
}

// FeatureUsageOf 读取指定功能的用量视图
func (q *UsageQuota) FeatureUsageOf(feature AIFeature) FeatureUsage {
	switch feature {
	case AIFeatureChat:
		return FeatureUsage{Used: q.ChatUsed, Limit: q.ChatLimit, TokensUsed: q.ChatTokensUsed, TokensLimit: q.ChatTokensLimit}
	case AIFeatureSummary:
		return FeatureUsage{Used: q.SummaryUsed, Limit: q.SummaryLimit, TokensUsed: q.SummaryTokensUsed, TokensLimit: q.SummaryTokensLimit}
	case AIFeatureQuiz:
		return FeatureUsage{Used: q.QuizUsed, Limit: q.QuizLimit, TokensUsed: q.QuizTokensUsed, TokensLimit: q.QuizTokensLimit}
	}
	return FeatureUsage{}
}

// ApplyIncrement 将一次提交写入内存中的记录
// 仅用于内存实现与本地快照；数据库路径走原子自增 SQL
func (q *UsageQuota) ApplyIncrement(feature AIFeature, tokens int64, cost decimal.Decimal) {
	switch feature {
	case AIFeatureChat:
		q.ChatUsed++
		q.ChatTokensUsed += tokens
	case AIFeatureSummary:
		q.SummaryUsed++
		q.SummaryTokensUsed += tokens
	case AIFeatureQuiz:
		q.QuizUsed++
		q.QuizTokensUsed += tokens
	}
	q.CostUsed = q.CostUsed.Add(cost)
	q.UpdatedAt = time.Now()
}
