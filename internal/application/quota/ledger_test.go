package quota

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testTenant(plan entity.TenantPlan) *entity.Tenant {
	return &entity.Tenant{
		ID:        "tenant-1",
		Name:      "Acme School",
		Subdomain: "acme",
		Plan:      plan,
		Status:    entity.TenantStatusActive,
	}
}

func newTestLedger(t *testing.T, plan entity.TenantPlan) (*Ledger, *entity.UsageQuota) {
	t.Helper()
	ledger := NewLedger(memory.NewQuotaRepository(), DefaultPlanTable()).
		WithClock(fixedClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)))

	record, err := ledger.GetOrCreate(context.Background(), "user-1", testTenant(plan))
	require.NoError(t, err)
	return ledger, record
}

func TestLedgerGetOrCreateSeedsPlanLimits(t *testing.T) {
	_, record := newTestLedger(t, entity.TenantPlanBasic)

	assert.Equal(t, "2026-09", record.Month)
	assert.Equal(t, 50, record.ChatLimit)
	assert.Equal(t, int64(100_000), record.ChatTokensLimit)
	assert.Equal(t, 10, record.SummaryLimit)
	assert.Equal(t, 5, record.QuizLimit)
	assert.True(t, record.CostLimit.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 0, record.ChatUsed)
}

func TestLedgerCountLimitBoundary(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	// 第 50 次仍可通过，第 51 次被拒
	for i := 0; i < 50; i++ {
		require.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureChat, 1000))
		require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureChat, 1000, decimal.Zero))
	}

	err := ledger.CheckAndReserve(record, entity.AIFeatureChat, 1000)
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, entity.AIFeatureChat, qe.Feature)
	assert.Equal(t, DimensionCount, qe.Dimension)
	assert.Equal(t, "50", qe.Used)
	assert.Equal(t, "2026-09", qe.Month)
}

func TestLedgerFeaturesCountedIndependently(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureSummary, 1000))
		require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureSummary, 1000, decimal.Zero))
	}

	// summary 打满后 chat 仍可用
	var qe *QuotaExceededError
	require.ErrorAs(t, ledger.CheckAndReserve(record, entity.AIFeatureSummary, 1000), &qe)
	assert.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureChat, 1000))
}

func TestLedgerTokenLimit(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	// 用一次大额提交逼近 token 上限
	require.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureChat, 2000))
	require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureChat, 99_500, decimal.Zero))

	// 次数还剩，但预估 token 超限
	err := ledger.CheckAndReserve(record, entity.AIFeatureChat, 2000)
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, DimensionTokens, qe.Dimension)
}

func TestLedgerCostLimit(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	require.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureChat, 1000))
	require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureChat, 1000, decimal.NewFromInt(5)))

	err := ledger.CheckAndReserve(record, entity.AIFeatureChat, 1000)
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, DimensionCost, qe.Dimension)
}

func TestLedgerUnlimitedPlan(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanEnterprise)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		require.NoError(t, ledger.CheckAndReserve(record, entity.AIFeatureChat, 10_000))
		require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureChat, 10_000, decimal.NewFromFloat(0.5)))
	}
	assert.Equal(t, 500, record.ChatUsed)
}

func TestLedgerCommitUpdatesSnapshot(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureQuiz, 1234, decimal.NewFromFloat(0.1234)))

	assert.Equal(t, 1, record.QuizUsed)
	assert.Equal(t, int64(1234), record.QuizTokensUsed)
	assert.Equal(t, "0.1234", record.CostUsed.StringFixed(4))
}

func TestLedgerGetOrCreateConcurrent(t *testing.T) {
	ledger := NewLedger(memory.NewQuotaRepository(), DefaultPlanTable()).
		WithClock(fixedClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)))
	tenant := testTenant(entity.TenantPlanBasic)

	ids := make([]string, 16)
	var g errgroup.Group
	for i := 0; i < len(ids); i++ {
		i := i
		g.Go(func() error {
			record, err := ledger.GetOrCreate(context.Background(), "user-1", tenant)
			if err != nil {
				return err
			}
			ids[i] = record.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "concurrent first use must converge on one record")
	}
}

func TestLedgerMonthRollover(t *testing.T) {
	repo := memory.NewQuotaRepository()
	ledger := NewLedger(repo, DefaultPlanTable()).
		WithClock(fixedClock(time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)))
	ctx := context.Background()
	tenant := testTenant(entity.TenantPlanBasic)

	september, err := ledger.GetOrCreate(ctx, "user-1", tenant)
	require.NoError(t, err)
	require.NoError(t, ledger.Commit(ctx, september, entity.AIFeatureChat, 1000, decimal.Zero))

	// 跨月后懒创建新桶，旧记录保留
	ledger.WithClock(fixedClock(time.Date(2026, 10, 1, 0, 1, 0, 0, time.UTC)))
	october, err := ledger.GetOrCreate(ctx, "user-1", tenant)
	require.NoError(t, err)

	assert.Equal(t, "2026-10", october.Month)
	assert.Equal(t, 0, october.ChatUsed)

	kept, err := repo.GetByBucket(ctx, "user-1", tenant.ID, "2026-09")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, 1, kept.ChatUsed)
}

func TestLedgerStats(t *testing.T) {
	ledger, record := newTestLedger(t, entity.TenantPlanBasic)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		require.NoError(t, ledger.Commit(ctx, record, entity.AIFeatureChat, 1000, decimal.NewFromFloat(0.05)))
	}

	stats := ledger.Stats(record)
	require.NotNil(t, stats.Features[entity.AIFeatureChat])
	assert.Equal(t, "2026-09", stats.Month)
	assert.Equal(t, 13, stats.Features[entity.AIFeatureChat].Used)
	assert.Equal(t, 26.0, stats.Features[entity.AIFeatureChat].Percent)
	assert.Equal(t, "0.6500", stats.Cost.Used)
	assert.Equal(t, 13.0, stats.Cost.Percent)
}

func TestPercentRounding(t *testing.T) {
	cases := []struct {
		used, limit int64
		want        float64
	}{
		{0, 50, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{50, 50, 100},
		{10, 0, 0}, // 不限量按 0% 展示
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.used, tc.limit), func(t *testing.T) {
			assert.Equal(t, tc.want, Percent(tc.used, tc.limit))
		})
	}
}
