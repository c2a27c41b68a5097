// Package entity 定义领域实体
package entity

import "time"

// MemberRole 成员在租户内的角色
type MemberRole string

const (
	MemberRoleStudent MemberRole = "student"
	MemberRoleTeacher MemberRole = "teacher"
	MemberRoleAdmin   MemberRole = "admin"
)

// TeacherApprovalStatus 教师认证审批状态
type TeacherApprovalStatus string

const (
	TeacherApprovalNotApplied TeacherApprovalStatus = "not_applied"
	TeacherApprovalPending    TeacherApprovalStatus = "pending"
	TeacherApprovalApproved   TeacherApprovalStatus = "approved"
	TeacherApprovalRejected   TeacherApprovalStatus = "rejected"
)

// Membership 用户与租户的归属关系
// 约束：每个 (user_id, tenant_id) 至多一条记录；撤销通过 Revoked 标记
type Membership struct {
	ID              string                `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          string                `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_tenant"`
	TenantID        string                `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_tenant"`
	Role            MemberRole            `json:"role" gorm:"type:varchar(16);not null;default:'student'"`
	TeacherApproval TeacherApprovalStatus `json:"teacher_approval" gorm:"type:varchar(16);not null;default:'not_applied'"`
	Revoked         bool                  `json:"revoked" gorm:"not null;default:false"`
	JoinedAt        time.Time             `json:"joined_at" gorm:"not null"`
	CreatedAt       time.Time             `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time             `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMembership 创建成员关系
func NewMembership(userID, tenantID string, role MemberRole) *Membership {
	now := time.Now()
	return &Membership{
		UserID:          userID,
		TenantID:        tenantID,
		Role:            role,
		TeacherApproval: TeacherApprovalNotApplied,
		JoinedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsActive 成员关系是否可用
func (m *Membership) IsActive() bool {
	return !m.Revoked
}

// IsApprovedTeacher 是否为已通过审批的教师
func (m *Membership) IsApprovedTeacher() bool {
	return m.Role == MemberRoleTeacher && m.TeacherApproval == TeacherApprovalApproved
}

// CanAuthorQuizzes 是否允许生成测验（管理员或已审批教师）
func (m *Membership) CanAuthorQuizzes() bool {
	return m.Role == MemberRoleAdmin || m.IsApprovedTeacher()
}
