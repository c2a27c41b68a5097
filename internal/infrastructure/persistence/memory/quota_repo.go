// Package memory 提供内存版仓储实现
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

type bucketKey struct {
	userID   string
	tenantID string
	month    string
}

// QuotaRepository 内存版月度配额仓储
// 互斥锁下执行检查与自增，语义与 postgres 的原子 UPDATE 一致
type QuotaRepository struct {
	mu     sync.Mutex
	quotas map[bucketKey]*entity.UsageQuota
}

// NewQuotaRepository 创建内存配额仓储
func NewQuotaRepository() *QuotaRepository {
	return &QuotaRepository{quotas: make(map[bucketKey]*entity.UsageQuota)}
}

var _ repository.QuotaRepository = (*QuotaRepository)(nil)

// GetOrCreate 获取或创建月度配额记录，并发下幂等
func (r *QuotaRepository) GetOrCreate(ctx context.Context, seed *entity.UsageQuota) (*entity.UsageQuota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bucketKey{seed.UserID, seed.TenantID, seed.Month}
	if existing, ok := r.quotas[key]; ok {
		cp := *existing
		return &cp, nil
	}

	cp := *seed
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	r.quotas[key] = &cp

	out := cp
	return &out, nil
}

// GetByBucket 按 (user, tenant, month) 查询
func (r *QuotaRepository) GetByBucket(ctx context.Context, userID, tenantID, month string) (*entity.UsageQuota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.quotas[bucketKey{userID, tenantID, month}]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

// IncrementUsage 原子提交一次用量
func (r *QuotaRepository) IncrementUsage(ctx context.Context, id string, feature entity.AIFeature, tokens int64, cost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, q := range r.quotas {
		if q.ID == id {
			q.ApplyIncrement(feature, tokens, cost)
			return nil
		}
	}
	return fmt.Errorf("quota record not found: %s", id)
}

// ListByUser 列出用户在租户下的历史月度记录，按月份降序
func (r *QuotaRepository) ListByUser(ctx context.Context, userID, tenantID string, pagination repository.Pagination) (*repository.PagedResult[*entity.UsageQuota], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*entity.UsageQuota
	for _, q := range r.quotas {
		if q.UserID == userID && q.TenantID == tenantID {
			cp := *q
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Month > all[j].Month })

	total := int64(len(all))
	start := pagination.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + pagination.Limit()
	if end > len(all) {
		end = len(all)
	}
	return repository.NewPagedResult(all[start:end], total, pagination), nil
}
