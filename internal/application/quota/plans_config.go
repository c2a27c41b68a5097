package quota

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/entity"
)

// PlanTableFromConfig 用配置覆盖内置限额表
// 配置中未出现的套餐保留内置默认值；费用上限为空串表示不限
func PlanTableFromConfig(cfg *config.QuotaConfig) (PlanTable, error) {
	table := DefaultPlanTable()
	if cfg == nil {
		return table, nil
	}
	for name, pc := range cfg.Plans {
		plan := entity.TenantPlan(name)
		if !entity.ValidPlan(plan) {
			return nil, fmt.Errorf("unknown plan in quota config: %s", name)
		}
		costLimit := decimal.Zero
		if pc.CostLimit != "" {
			parsed, err := decimal.NewFromString(pc.CostLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid cost limit for plan %s: %w", name, err)
			}
			costLimit = parsed
		}
		table[plan] = PlanLimits{
			ChatMessages:  pc.ChatRequests,
			ChatTokens:    pc.ChatTokens,
			Summaries:     pc.SummaryRequests,
			SummaryTokens: pc.SummaryTokens,
			Quizzes:       pc.QuizRequests,
			QuizTokens:    pc.QuizTokens,
			CostLimit:     costLimit,
		}
	}
	return table, nil
}
