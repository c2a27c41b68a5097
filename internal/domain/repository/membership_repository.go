// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lumen-lms-api/internal/domain/entity"
)

// MembershipRepository 成员关系仓储接口
type MembershipRepository interface {
	// Create 创建成员关系；(user_id, tenant_id) 冲突时返回错误
	Create(ctx context.Context, m *entity.Membership) error

	// GetByUserAndTenant 获取指定用户在指定租户的成员关系，不存在时返回 nil
	GetByUserAndTenant(ctx context.Context, userID, tenantID string) (*entity.Membership, error)

	// ListByUser 获取用户全部成员关系，按 joined_at 降序、id 升序排列
	// 排序固定，保证登录默认租户选择是确定性的
	ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error)

	// CountByTenant 统计租户内未撤销的成员数
	CountByTenant(ctx context.Context, tenantID string) (int64, error)

	// UpdateRole 更新角色
	UpdateRole(ctx context.Context, id string, role entity.MemberRole) error

	// UpdateTeacherApproval 更新教师审批状态
	UpdateTeacherApproval(ctx context.Context, id string, status entity.TeacherApprovalStatus) error

	// Revoke 撤销成员关系（软标记）
	Revoke(ctx context.Context, id string) error
}
