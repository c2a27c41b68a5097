package aigate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
)

type recordedEvents struct {
	events []service.UsageRecordInput
}

func (r *recordedEvents) Record(ctx context.Context, in service.UsageRecordInput) error {
	r.events = append(r.events, in)
	return nil
}

type gateFixture struct {
	gate     *Gate
	limiter  *memory.RateLimiter
	quotas   *memory.QuotaRepository
	recorder *recordedEvents
	tenant   *entity.Tenant
}

func newGateFixture(t *testing.T, limits service.RateLimits, plan entity.TenantPlan) *gateFixture {
	t.Helper()
	limiter := memory.NewRateLimiter(limits).
		WithClock(func() time.Time { return time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC) })
	quotas := memory.NewQuotaRepository()
	ledger := quota.NewLedger(quotas, quota.DefaultPlanTable()).
		WithClock(func() time.Time { return time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC) })
	recorder := &recordedEvents{}
	return &gateFixture{
		gate:     NewGate(limiter, ledger, recorder),
		limiter:  limiter,
		quotas:   quotas,
		recorder: recorder,
		tenant: &entity.Tenant{
			ID:        "tenant-1",
			Name:      "Acme School",
			Subdomain: "acme",
			Plan:      plan,
			Status:    entity.TenantStatusActive,
		},
	}
}

func okCall(tokens int) service.ProviderCall {
	return func(ctx context.Context) (*service.AIResult, error) {
		return &service.AIResult{
			Content:          "answer",
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			TokensPrompt:     tokens / 2,
			TokensCompletion: tokens - tokens/2,
			Cost:             decimal.NewFromFloat(0.01),
			DurationMs:       120,
		}, nil
	}
}

func TestGateSuccessCommitsUsage(t *testing.T) {
	f := newGateFixture(t, service.RateLimits{PerMinute: 10, PerHour: 100, PerDay: 500}, entity.TenantPlanBasic)
	ctx := context.Background()

	result, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureChat, 2000, okCall(1500))
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Content)
	assert.Equal(t, "openai", result.Provider)
	require.NotNil(t, result.Usage)
	assert.Equal(t, 1, result.Usage.Features[entity.AIFeatureChat].Used)
	assert.Equal(t, int64(1500), result.Usage.Features[entity.AIFeatureChat].TokensUsed)

	record, err := f.quotas.GetByBucket(ctx, "user-1", "tenant-1", "2026-09")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.ChatUsed)
	assert.Equal(t, "0.0100", record.CostUsed.StringFixed(4))

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, entity.AIFeatureChat, f.recorder.events[0].Feature)
	assert.Equal(t, 750, f.recorder.events[0].PromptTokens)
}

func TestGateRateLimitBlocksBeforeQuota(t *testing.T) {
	f := newGateFixture(t, service.RateLimits{PerMinute: 1, PerHour: 100, PerDay: 500}, entity.TenantPlanBasic)
	ctx := context.Background()

	_, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureChat, 2000, okCall(1000))
	require.NoError(t, err)

	called := false
	_, err = f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureChat, 2000,
		func(ctx context.Context) (*service.AIResult, error) {
			called = true
			return nil, nil
		})

	var rle *service.RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, service.RateWindowMinute, rle.Window)
	assert.Equal(t, 1, rle.Limit)
	assert.Greater(t, rle.RetryAfterSeconds, 0)
	assert.False(t, called, "provider must not be invoked when rate limited")

	// 被限流的请求不触碰配额
	record, err := f.quotas.GetByBucket(ctx, "user-1", "tenant-1", "2026-09")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.ChatUsed)
}

func TestGateQuotaRejectedDoesNotCallProvider(t *testing.T) {
	f := newGateFixture(t, service.RateLimits{PerMinute: 100, PerHour: 1000, PerDay: 5000}, entity.TenantPlanBasic)
	ctx := context.Background()

	// basic 套餐 quiz 月上限 5 次
	for i := 0; i < 5; i++ {
		_, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureQuiz, 2000, okCall(1000))
		require.NoError(t, err)
	}

	called := false
	_, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureQuiz, 2000,
		func(ctx context.Context) (*service.AIResult, error) {
			called = true
			return nil, nil
		})

	var qe *quota.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, entity.AIFeatureQuiz, qe.Feature)
	assert.Equal(t, quota.DimensionCount, qe.Dimension)
	assert.False(t, called)

	// 限流计数在配额拒绝前已发生且不回滚
	usage, err := f.limiter.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, usage.Minute)
}

func TestGateProviderFailureDoesNotCommitQuota(t *testing.T) {
	f := newGateFixture(t, service.RateLimits{PerMinute: 100, PerHour: 1000, PerDay: 5000}, entity.TenantPlanBasic)
	ctx := context.Background()

	providerErr := errors.New("upstream timeout")
	_, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureChat, 2000,
		func(ctx context.Context) (*service.AIResult, error) {
			return nil, providerErr
		})

	var se *AIServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, entity.AIFeatureChat, se.Feature)
	assert.ErrorIs(t, err, providerErr)

	record, err := f.quotas.GetByBucket(ctx, "user-1", "tenant-1", "2026-09")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 0, record.ChatUsed, "failed call must not consume quota")

	// 失败的调用仍占限流计数
	usage, err := f.limiter.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Minute)

	assert.Empty(t, f.recorder.events)
}

func TestGateUsersIsolated(t *testing.T) {
	f := newGateFixture(t, service.RateLimits{PerMinute: 1, PerHour: 100, PerDay: 500}, entity.TenantPlanBasic)
	ctx := context.Background()

	_, err := f.gate.Execute(ctx, "user-1", f.tenant, entity.AIFeatureChat, 2000, okCall(1000))
	require.NoError(t, err)

	// user-1 打满分钟配额不影响 user-2
	_, err = f.gate.Execute(ctx, "user-2", f.tenant, entity.AIFeatureChat, 2000, okCall(1000))
	assert.NoError(t, err)
}

func TestGateNilRecorder(t *testing.T) {
	limiter := memory.NewRateLimiter(service.RateLimits{PerMinute: 10, PerHour: 100, PerDay: 500})
	ledger := quota.NewLedger(memory.NewQuotaRepository(), quota.DefaultPlanTable())
	gate := NewGate(limiter, ledger, nil)

	tenant := &entity.Tenant{ID: "tenant-1", Plan: entity.TenantPlanBasic, Status: entity.TenantStatusActive}
	_, err := gate.Execute(context.Background(), "user-1", tenant, entity.AIFeatureChat, 2000, okCall(1000))
	assert.NoError(t, err)
}
