// Package auth 提供租户上下文感知的认证与授权能力
package auth

import (
	"context"
	"errors"
	"fmt"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

var (
	// ErrTenantNotFound 目标租户不存在或已停用
	ErrTenantNotFound = errors.New("tenant not found or inactive")
	// ErrNotAMember 用户在目标租户内没有可用的成员关系
	ErrNotAMember = errors.New("not a member of tenant")
)

// TenantSwitchAuthorizer 租户切换授权器
// 所有"用户能否获得某租户作用域 Token"的判定都经过这里；
// 它只做判定，从不签发任何 Token
type TenantSwitchAuthorizer struct {
	tenantRepo     repository.TenantRepository
	membershipRepo repository.MembershipRepository
}

// NewTenantSwitchAuthorizer 创建授权器
func NewTenantSwitchAuthorizer(tenantRepo repository.TenantRepository, membershipRepo repository.MembershipRepository) *TenantSwitchAuthorizer {
	return &TenantSwitchAuthorizer{
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
	}
}

// Authorize 判定用户能否获得目标租户作用域的 Token
// 租户缺失或停用返回 ErrTenantNotFound；无成员关系或已撤销返回 ErrNotAMember；
// 成功时返回成员关系（携带角色）
func (a *TenantSwitchAuthorizer) Authorize(ctx context.Context, userID, tenantID string) (*entity.Membership, error) {
	tenant, err := a.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if tenant == nil || !tenant.IsActive() {
		return nil, ErrTenantNotFound
	}

	membership, err := a.membershipRepo.GetByUserAndTenant(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	if membership == nil || !membership.IsActive() {
		return nil, ErrNotAMember
	}

	return membership, nil
}

// AuthorizeWithTenant 同 Authorize，但同时返回租户（避免调用方二次查询）
func (a *TenantSwitchAuthorizer) AuthorizeWithTenant(ctx context.Context, userID, tenantID string) (*entity.Tenant, *entity.Membership, error) {
	tenant, err := a.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if tenant == nil || !tenant.IsActive() {
		return nil, nil, ErrTenantNotFound
	}

	membership, err := a.membershipRepo.GetByUserAndTenant(ctx, userID, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup membership: %w", err)
	}
	if membership == nil || !membership.IsActive() {
		return nil, nil, ErrNotAMember
	}

	return tenant, membership, nil
}

// DefaultMembership 为多租户用户选择登录默认成员关系
// 规则固定：joined_at 最近优先，id 升序打破平手；用户没有任何可用
// 成员关系时返回 ErrNotAMember。用户永远不会被隐式分配租户——
// Token 的租户要么来自这里的确定性默认值，要么来自显式切换
func (a *TenantSwitchAuthorizer) DefaultMembership(ctx context.Context, userID string) (*entity.Membership, error) {
	memberships, err := a.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range memberships {
		if !m.IsActive() {
			continue
		}
		tenant, err := a.tenantRepo.GetByID(ctx, m.TenantID)
		if err != nil {
			return nil, fmt.Errorf("lookup tenant: %w", err)
		}
		if tenant != nil && tenant.IsActive() {
			return m, nil
		}
	}
	return nil, ErrNotAMember
}
