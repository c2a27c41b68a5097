// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lumen-lms-api/internal/domain/entity"
)

// MembershipRepository 成员关系仓储实现
type MembershipRepository struct {
	client *Client
}

// NewMembershipRepository 创建成员关系仓储
func NewMembershipRepository(client *Client) *MembershipRepository {
	return &MembershipRepository{client: client}
}

// Create 创建成员关系
// (user_id, tenant_id) 上有唯一索引，重复加入由数据库约束拒绝
func (r *MembershipRepository) Create(ctx context.Context, m *entity.Membership) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.Create")
	defer span.End()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(m).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// GetByUserAndTenant 获取指定用户在指定租户的成员关系
func (r *MembershipRepository) GetByUserAndTenant(ctx context.Context, userID, tenantID string) (*entity.Membership, error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.GetByUserAndTenant")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var m entity.Membership
	if err := db.First(&m, "user_id = ? AND tenant_id = ?", userID, tenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// ListByUser 获取用户全部成员关系
// 固定按 joined_at 降序、id 升序，供默认租户的确定性选择
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var memberships []*entity.Membership
	if err := db.Where("user_id = ?", userID).
		Order("joined_at DESC, id ASC").
		Find(&memberships).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return memberships, nil
}

// CountByTenant 统计租户内未撤销的成员数
func (r *MembershipRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.CountByTenant")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Membership{}).
		Where("tenant_id = ? AND revoked = ?", tenantID, false).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

// UpdateRole 更新角色
func (r *MembershipRepository) UpdateRole(ctx context.Context, id string, role entity.MemberRole) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.UpdateRole")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Membership{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// UpdateTeacherApproval 更新教师审批状态
func (r *MembershipRepository) UpdateTeacherApproval(ctx context.Context, id string, status entity.TeacherApprovalStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.UpdateTeacherApproval")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Membership{}).Where("id = ?", id).Update("teacher_approval", status).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update teacher approval: %w", err)
	}
	return nil
}

// Revoke 撤销成员关系
func (r *MembershipRepository) Revoke(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.Revoke")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Membership{}).Where("id = ?", id).Update("revoked", true).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to revoke membership: %w", err)
	}
	return nil
}
