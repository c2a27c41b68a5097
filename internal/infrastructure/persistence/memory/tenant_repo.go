// Package memory 提供内存版仓储实现
// 供本地开发与测试使用，语义与 postgres 实现保持一致
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

// TenantRepository 内存版租户仓储
type TenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]*entity.Tenant
}

// NewTenantRepository 创建内存租户仓储
func NewTenantRepository() *TenantRepository {
	return &TenantRepository{tenants: make(map[string]*entity.Tenant)}
}

var _ repository.TenantRepository = (*TenantRepository)(nil)

// Create 创建租户
func (r *TenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	for _, t := range r.tenants {
		if t.Subdomain == tenant.Subdomain {
			return fmt.Errorf("subdomain already exists: %s", tenant.Subdomain)
		}
	}
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	return nil
}

// GetByID 根据 ID 获取租户
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// GetBySubdomain 根据子域名获取租户
func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tenants {
		if t.Subdomain == subdomain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// List 分页列出租户，按创建时间降序
func (r *TenantRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Tenant], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

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

// UpdateStatus 更新租户状态
func (r *TenantRepository) UpdateStatus(ctx context.Context, id string, status entity.TenantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return fmt.Errorf("tenant not found: %s", id)
	}
	t.Status = status
	return nil
}

// ExistsBySubdomain 检查子域名是否已占用
func (r *TenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tenants {
		if t.Subdomain == subdomain {
			return true, nil
		}
	}
	return false, nil
}
