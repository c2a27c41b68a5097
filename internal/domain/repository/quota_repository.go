// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
)

// QuotaRepository 月度配额仓储接口
// 实现必须保证：GetOrCreate 在并发首次调用下幂等（同键只产生一条记录），
// IncrementUsage 为存储层单语句原子自增，不允许读改写
type QuotaRepository interface {
	// GetOrCreate 获取或创建月度配额记录（upsert-on-conflict）
	// seed 携带按套餐预置的上限；已存在时返回存量记录
	GetOrCreate(ctx context.Context, seed *entity.UsageQuota) (*entity.UsageQuota, error)

	// GetByBucket 按 (user, tenant, month) 查询，不存在时返回 nil
	GetByBucket(ctx context.Context, userID, tenantID, month string) (*entity.UsageQuota, error)

	// IncrementUsage 原子提交一次用量：功能计数 +1、token 计数 +tokens、费用 +cost
	IncrementUsage(ctx context.Context, id string, feature entity.AIFeature, tokens int64, cost decimal.Decimal) error

	// ListByUser 列出用户在租户下的历史月度记录（审计/账单）
	ListByUser(ctx context.Context, userID, tenantID string, pagination Pagination) (*PagedResult[*entity.UsageQuota], error)
}

// AIUsageEventRepository AI 调用流水仓储接口
type AIUsageEventRepository interface {
	// Create 追加一条调用流水
	Create(ctx context.Context, event *entity.AIUsageEvent) error

	// GetTokenUsage 统计时间区间内的 token 消耗
	GetTokenUsage(ctx context.Context, tenantID string, startInclusive, endExclusive time.Time) (int64, error)
}
