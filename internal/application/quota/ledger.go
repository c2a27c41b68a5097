// Package quota 提供月度配额账本与套餐限额能力
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

// 配额维度
const (
	DimensionCount  = "count"
	DimensionTokens = "tokens"
	DimensionCost   = "cost"
)

// QuotaExceededError 月度配额命中
// 携带功能、维度与用量细节，供客户端渲染升级提示；不含存储实现细节
type QuotaExceededError struct {
	UserID    string
	TenantID  string
	Month     string
	Feature   entity.AIFeature
	Dimension string
	Used      string
	Limit     string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: feature=%s dimension=%s used=%s limit=%s month=%s",
		e.Feature, e.Dimension, e.Used, e.Limit, e.Month)
}

// Ledger 月度配额账本
// GetOrCreate 懒创建当月记录并按套餐预置上限；CheckAndReserve 只校验不落账；
// Commit 在提供商调用成功后以原子自增落账
type Ledger struct {
	repo  repository.QuotaRepository
	plans PlanTable
	now   func() time.Time
}

// NewLedger 创建账本
func NewLedger(repo repository.QuotaRepository, plans PlanTable) *Ledger {
	return &Ledger{
		repo:  repo,
		plans: plans,
		now:   time.Now,
	}
}

// WithClock 覆盖时钟（测试用）
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CurrentMonth 当前月度桶
func (l *Ledger) CurrentMonth() string {
	return entity.MonthBucketOf(l.now())
}

// GetOrCreate 获取或创建用户在租户下的当月配额记录
// 并发首次使用由仓储层的冲突即取语义保证幂等
func (l *Ledger) GetOrCreate(ctx context.Context, userID string, tenant *entity.Tenant) (*entity.UsageQuota, error) {
	seed := l.plans.SeedQuota(userID, tenant.ID, l.CurrentMonth(), tenant.Plan)
	record, err := l.repo.GetOrCreate(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("get or create quota record: %w", err)
	}
	return record, nil
}

// CheckAndReserve 校验本次调用是否仍在配额内，不改变任何计数
// 实际落账发生在 Commit —— 真实 token 与费用只有调用完成后才可知
func (l *Ledger) CheckAndReserve(q *entity.UsageQuota, feature entity.AIFeature, estimatedTokens int64) error {
	usage := q.FeatureUsageOf(feature)

	if usage.Limit > Unlimited && usage.Used+1 > usage.Limit {
		return l.exceeded(q, feature, DimensionCount,
			fmt.Sprintf("%d", usage.Used), fmt.Sprintf("%d", usage.Limit))
	}

	if usage.TokensLimit > Unlimited && usage.TokensUsed+estimatedTokens > usage.TokensLimit {
		return l.exceeded(q, feature, DimensionTokens,
			fmt.Sprintf("%d", usage.TokensUsed), fmt.Sprintf("%d", usage.TokensLimit))
	}

	if q.CostLimit.IsPositive() && q.CostUsed.GreaterThanOrEqual(q.CostLimit) {
		return l.exceeded(q, feature, DimensionCost,
			q.CostUsed.StringFixed(4), q.CostLimit.StringFixed(4))
	}

	return nil
}

// Commit 提交一次成功调用的真实用量
// 仓储层保证单语句原子自增；本地记录同步快照以便同请求内读取
func (l *Ledger) Commit(ctx context.Context, q *entity.UsageQuota, feature entity.AIFeature, actualTokens int64, cost decimal.Decimal) error {
	if err := l.repo.IncrementUsage(ctx, q.ID, feature, actualTokens, cost); err != nil {
		return fmt.Errorf("commit quota usage: %w", err)
	}
	q.ApplyIncrement(feature, actualTokens, cost)
	return nil
}

func (l *Ledger) exceeded(q *entity.UsageQuota, feature entity.AIFeature, dimension, used, limit string) error {
	return &QuotaExceededError{
		UserID:    q.UserID,
		TenantID:  q.TenantID,
		Month:     q.Month,
		Feature:   feature,
		Dimension: dimension,
		Used:      used,
		Limit:     limit,
	}
}
