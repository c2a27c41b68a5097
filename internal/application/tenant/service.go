// Package tenant 提供租户生命周期管理
package tenant

import (
	"context"
	"errors"
	"fmt"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/pkg/logger"
)

var (
	// ErrSubdomainTaken 子域名已被占用
	ErrSubdomainTaken = errors.New("subdomain already taken")
	// ErrInvalidSubdomain 子域名不合法
	ErrInvalidSubdomain = errors.New("invalid subdomain")
	// ErrInvalidPlan 套餐不合法
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrNotFound 租户不存在
	ErrNotFound = errors.New("tenant not found")
)

// Service 租户服务
type Service struct {
	tenantRepo     repository.TenantRepository
	membershipRepo repository.MembershipRepository
}

// NewService 创建租户服务
func NewService(tenantRepo repository.TenantRepository, membershipRepo repository.MembershipRepository) *Service {
	return &Service{tenantRepo: tenantRepo, membershipRepo: membershipRepo}
}

// Create 创建租户
// 子域名全局唯一且格式受限（DNS label）；套餐缺省 basic
func (s *Service) Create(ctx context.Context, name, subdomain string, plan entity.TenantPlan) (*entity.Tenant, error) {
	if !entity.ValidSubdomain(subdomain) {
		return nil, ErrInvalidSubdomain
	}
	if plan == "" {
		plan = entity.TenantPlanBasic
	}
	if !entity.ValidPlan(plan) {
		return nil, ErrInvalidPlan
	}

	taken, err := s.tenantRepo.ExistsBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}
	if taken {
		return nil, ErrSubdomainTaken
	}

	t := entity.NewTenant(name, subdomain, plan)
	if err := s.tenantRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	logger.Info(ctx, "tenant created", "tenant_id", t.ID, "subdomain", subdomain, "plan", string(plan))
	return t, nil
}

// Get 获取租户
func (s *Service) Get(ctx context.Context, id string) (*entity.Tenant, error) {
	t, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// List 分页列出租户
func (s *Service) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Tenant], error) {
	return s.tenantRepo.List(ctx, pagination)
}

// UpdateStatus 软停用/恢复租户
// 租户从不硬删除：停用后成员关系与用量记录全部保留，
// 次月恢复时配额按套餐重新生效
func (s *Service) UpdateStatus(ctx context.Context, id string, status entity.TenantStatus) (*entity.Tenant, error) {
	t, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status == status {
		return t, nil
	}

	if err := s.tenantRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update tenant status: %w", err)
	}
	t.Status = status

	members, err := s.membershipRepo.CountByTenant(ctx, id)
	if err != nil {
		members = -1
	}
	logger.Info(ctx, "tenant status updated",
		"tenant_id", id, "status", string(status), "members", members)
	return t, nil
}
