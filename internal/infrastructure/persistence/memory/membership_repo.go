// Package memory 提供内存版仓储实现
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
)

// MembershipRepository 内存版成员关系仓储
type MembershipRepository struct {
	mu          sync.RWMutex
	memberships map[string]*entity.Membership
}

// NewMembershipRepository 创建内存成员关系仓储
func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{memberships: make(map[string]*entity.Membership)}
}

var _ repository.MembershipRepository = (*MembershipRepository)(nil)

// Create 创建成员关系，(user_id, tenant_id) 重复时拒绝
func (r *MembershipRepository) Create(ctx context.Context, m *entity.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.memberships {
		if existing.UserID == m.UserID && existing.TenantID == m.TenantID {
			return fmt.Errorf("membership already exists: user=%s tenant=%s", m.UserID, m.TenantID)
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	cp := *m
	r.memberships[m.ID] = &cp
	return nil
}

// GetByUserAndTenant 获取指定用户在指定租户的成员关系
func (r *MembershipRepository) GetByUserAndTenant(ctx context.Context, userID, tenantID string) (*entity.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.memberships {
		if m.UserID == userID && m.TenantID == tenantID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// ListByUser 获取用户全部成员关系，按 joined_at 降序、id 升序
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Membership
	for _, m := range r.memberships {
		if m.UserID == userID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].JoinedAt.After(result[j].JoinedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountByTenant 统计租户内未撤销的成员数
func (r *MembershipRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, m := range r.memberships {
		if m.TenantID == tenantID && !m.Revoked {
			count++
		}
	}
	return count, nil
}

// UpdateRole 更新角色
func (r *MembershipRepository) UpdateRole(ctx context.Context, id string, role entity.MemberRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[id]
	if !ok {
		return fmt.Errorf("membership not found: %s", id)
	}
	m.Role = role
	m.UpdatedAt = time.Now()
	return nil
}

// UpdateTeacherApproval 更新教师审批状态
func (r *MembershipRepository) UpdateTeacherApproval(ctx context.Context, id string, status entity.TeacherApprovalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[id]
	if !ok {
		return fmt.Errorf("membership not found: %s", id)
	}
	m.TeacherApproval = status
	m.UpdatedAt = time.Now()
	return nil
}

// Revoke 撤销成员关系
func (r *MembershipRepository) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[id]
	if !ok {
		return fmt.Errorf("membership not found: %s", id)
	}
	m.Revoked = true
	m.UpdatedAt = time.Now()
	return nil
}
