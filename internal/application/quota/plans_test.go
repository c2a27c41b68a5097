package quota

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/entity"
)

func TestLimitsForUnknownPlanFallsBackToBasic(t *testing.T) {
	table := DefaultPlanTable()

	limits := table.LimitsFor(entity.TenantPlan("legacy"))
	assert.Equal(t, table[entity.TenantPlanBasic], limits)
}

func TestSeedQuota(t *testing.T) {
	table := DefaultPlanTable()

	seed := table.SeedQuota("user-1", "tenant-1", "2026-09", entity.TenantPlanPro)
	assert.Equal(t, "user-1", seed.UserID)
	assert.Equal(t, "tenant-1", seed.TenantID)
	assert.Equal(t, "2026-09", seed.Month)
	assert.Equal(t, 200, seed.ChatLimit)
	assert.Equal(t, int64(500_000), seed.ChatTokensLimit)
	assert.True(t, seed.CostLimit.Equal(decimal.NewFromInt(25)))
}

func TestPlanTableFromConfigOverridesDefaults(t *testing.T) {
	cfg := &config.QuotaConfig{
		Plans: map[string]config.PlanLimitsConfig{
			"basic": {
				ChatRequests:    20,
				ChatTokens:      40_000,
				SummaryRequests: 4,
				SummaryTokens:   20_000,
				QuizRequests:    2,
				QuizTokens:      10_000,
				CostLimit:       "2.50",
			},
		},
	}

	table, err := PlanTableFromConfig(cfg)
	require.NoError(t, err)

	basic := table.LimitsFor(entity.TenantPlanBasic)
	assert.Equal(t, 20, basic.ChatMessages)
	assert.Equal(t, int64(40_000), basic.ChatTokens)
	assert.True(t, basic.CostLimit.Equal(decimal.NewFromFloat(2.5)))

	// 未覆盖的套餐保留内置默认值
	pro := table.LimitsFor(entity.TenantPlanPro)
	assert.Equal(t, 200, pro.ChatMessages)
}

func TestPlanTableFromConfigRejectsUnknownPlan(t *testing.T) {
	cfg := &config.QuotaConfig{
		Plans: map[string]config.PlanLimitsConfig{
			"platinum": {ChatRequests: 1},
		},
	}

	_, err := PlanTableFromConfig(cfg)
	assert.Error(t, err)
}

func TestPlanTableFromConfigRejectsBadCostLimit(t *testing.T) {
	cfg := &config.QuotaConfig{
		Plans: map[string]config.PlanLimitsConfig{
			"basic": {CostLimit: "five dollars"},
		},
	}

	_, err := PlanTableFromConfig(cfg)
	assert.Error(t, err)
}

func TestPlanTableFromConfigNil(t *testing.T) {
	table, err := PlanTableFromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlanTable(), table)
}
