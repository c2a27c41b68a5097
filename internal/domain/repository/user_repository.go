// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lumen-lms-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户，不存在时返回 nil
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户，不存在时返回 nil
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail 检查邮箱是否已注册
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateLastLogin 更新最近登录时间
	UpdateLastLogin(ctx context.Context, id string) error
}
