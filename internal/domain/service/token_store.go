// Package service 定义跨层稳定契约（port）
package service

import (
	"context"
	"time"
)

// RefreshTokenStore RefreshToken 吊销存储
// 开启 rotate_refresh 后，每次刷新将旧 token 的 jti 写入吊销表，
// 重放已吊销的 RefreshToken 会被拒绝。TTL 取 token 剩余生命周期
type RefreshTokenStore interface {
	// Revoke 吊销指定 jti
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked 检查 jti 是否已吊销
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
