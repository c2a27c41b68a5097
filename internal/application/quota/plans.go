// Package quota 提供月度配额账本与套餐限额能力
package quota

import (
	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
)

// Unlimited 不限量标记
const Unlimited = 0

// PlanLimits 单个套餐的月度限额表
// 计数/Token 上限为 0 表示不限量；CostLimit 为 0 表示不设费用上限
type PlanLimits struct {
	ChatMessages  int
	ChatTokens    int64
	Summaries     int
	SummaryTokens int64
	Quizzes       int
	QuizTokens    int64
	CostLimit     decimal.Decimal
}

// defaultPlans 内置套餐限额表
// 权威数据以计费子系统下发的配置为准，这里是进程启动时的兜底值
var defaultPlans = map[entity.TenantPlan]PlanLimits{
	entity.TenantPlanBasic: {
		ChatMessages:  50,
		ChatTokens:    100_000,
		Summaries:     10,
		SummaryTokens: 50_000,
		Quizzes:       5,
		QuizTokens:    25_000,
		CostLimit:     decimal.NewFromInt(5),
	},
	entity.TenantPlanPro: {
		ChatMessages:  200,
		ChatTokens:    500_000,
		Summaries:     50,
		SummaryTokens: 250_000,
		Quizzes:       25,
		QuizTokens:    125_000,
		CostLimit:     decimal.NewFromInt(25),
	},
	entity.TenantPlanEnterprise: {
		ChatMessages:  Unlimited,
		ChatTokens:    Unlimited,
		Summaries:     Unlimited,
		SummaryTokens: Unlimited,
		Quizzes:       Unlimited,
		QuizTokens:    Unlimited,
		CostLimit:     decimal.Zero,
	},
}

// PlanTable 套餐 → 限额的查找表
type PlanTable map[entity.TenantPlan]PlanLimits

// DefaultPlanTable 返回内置限额表的副本
func DefaultPlanTable() PlanTable {
	table := make(PlanTable, len(defaultPlans))
	for plan, limits := range defaultPlans {
		table[plan] = limits
	}
	return table
}

// LimitsFor 查询套餐限额；未知套餐按 basic 兜底
func (t PlanTable) LimitsFor(plan entity.TenantPlan) PlanLimits {
	if limits, ok := t[plan]; ok {
		return limits
	}
	return t[entity.TenantPlanBasic]
}

// SeedQuota 按套餐限额生成某月的配额记录初值
func (t PlanTable) SeedQuota(userID, tenantID, month string, plan entity.TenantPlan) *entity.UsageQuota {
	limits := t.LimitsFor(plan)
	return &entity.UsageQuota{
		UserID:   userID,
		TenantID: tenantID,
		Month:    month,

		ChatLimit:       limits.ChatMessages,
		ChatTokensLimit: limits.ChatTokens,

		SummaryLimit:       limits.Summaries,
		SummaryTokensLimit: limits.SummaryTokens,

		QuizLimit:       limits.Quizzes,
		QuizTokensLimit: limits.QuizTokens,

		CostUsed:  decimal.Zero,
		CostLimit: limits.CostLimit,
	}
}
