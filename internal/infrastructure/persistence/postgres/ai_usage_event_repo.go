// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lumen-lms-api/internal/domain/entity"
)

// AIUsageEventRepository AI 调用流水仓储实现
type AIUsageEventRepository struct {
	client *Client
}

// NewAIUsageEventRepository 创建流水仓储
func NewAIUsageEventRepository(client *Client) *AIUsageEventRepository {
	return &AIUsageEventRepository{client: client}
}

// Create 追加一条调用流水
func (r *AIUsageEventRepository) Create(ctx context.Context, event *entity.AIUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.AIUsageEventRepository.Create")
	defer span.End()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create usage event: %w", err)
	}
	return nil
}

// GetTokenUsage 统计时间区间内的 token 消耗
func (r *AIUsageEventRepository) GetTokenUsage(ctx context.Context, tenantID string, startInclusive, endExclusive time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.AIUsageEventRepository.GetTokenUsage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	err := db.Model(&entity.AIUsageEvent{}).
		Select("COALESCE(SUM(tokens_prompt + tokens_completion), 0)").
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, startInclusive, endExclusive).
		Scan(&total).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum token usage: %w", err)
	}
	return total, nil
}
