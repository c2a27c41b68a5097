// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

// QuotaRepository 月度配额仓储实现
type QuotaRepository struct {
	client *Client
}

// NewQuotaRepository 创建配额仓储
func NewQuotaRepository(client *Client) *QuotaRepository {
	return &QuotaRepository{client: client}
}

// GetOrCreate 获取或创建月度配额记录
// 依赖 (user_id, tenant_id, month) 唯一索引做 ON CONFLICT DO NOTHING，
// 冲突后回读存量记录，并发首次调用下保持幂等
func (r *QuotaRepository) GetOrCreate(ctx context.Context, seed *entity.UsageQuota) (*entity.UsageQuota, error) {
	ctx, span := tracer.Start(ctx, "postgres.QuotaRepository.GetOrCreate")
	defer span.End()

	if seed.ID == "" {
		seed.ID = uuid.New().String()
	}

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "tenant_id"}, {Name: "month"}},
		DoNothing: true,
	}).Create(seed).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to upsert quota: %w", err)
	}

	// 无论插入是否落地都回读一次，保证拿到的是数据库中的存量记录
	var quota entity.UsageQuota
	if err := db.First(&quota, "user_id = ? AND tenant_id = ? AND month = ?",
		seed.UserID, seed.TenantID, seed.Month).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load quota after upsert: %w", err)
	}
	return &quota, nil
}

// GetByBucket 按 (user, tenant, month) 查询
func (r *QuotaRepository) GetByBucket(ctx context.Context, userID, tenantID, month string) (*entity.UsageQuota, error) {
	ctx, span := tracer.Start(ctx, "postgres.QuotaRepository.GetByBucket")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var quota entity.UsageQuota
	if err := db.First(&quota, "user_id = ? AND tenant_id = ? AND month = ?",
		userID, tenantID, month).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}
	return &quota, nil
}

// IncrementUsage 原子提交一次用量
// 单条 UPDATE 内完成计数、token 与费用自增，不做读改写
func (r *QuotaRepository) IncrementUsage(ctx context.Context, id string, feature entity.AIFeature, tokens int64, cost decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "postgres.QuotaRepository.IncrementUsage")
	defer span.End()

	var countCol, tokensCol string
	switch feature {
	case entity.AIFeatureChat:
		countCol, tokensCol = "chat_used", "chat_tokens_used"
	case entity.AIFeatureSummary:
		countCol, tokensCol = "summary_used", "summary_tokens_used"
	case entity.AIFeatureQuiz:
		countCol, tokensCol = "quiz_used", "quiz_tokens_used"
	default:
		return fmt.Errorf("unknown ai feature: %s", feature)
	}

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.UsageQuota{}).Where("id = ?", id).Updates(map[string]interface{}{
		countCol:     gorm.Expr(countCol + " + 1"),
		tokensCol:    gorm.Expr(tokensCol+" + ?", tokens),
		"cost_used":  gorm.Expr("cost_used + ?", cost),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("quota record not found: %s", id)
	}
	return nil
}

// ListByUser 列出用户在租户下的历史月度记录
func (r *QuotaRepository) ListByUser(ctx context.Context, userID, tenantID string, pagination repository.Pagination) (*repository.PagedResult[*entity.UsageQuota], error) {
	ctx, span := tracer.Start(ctx, "postgres.QuotaRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.UsageQuota{}).Where("user_id = ? AND tenant_id = ?", userID, tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count quotas: %w", err)
	}

	var quotas []*entity.UsageQuota
	if err := query.Order("month DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&quotas).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list quotas: %w", err)
	}
	return repository.NewPagedResult(quotas, total, pagination), nil
}
