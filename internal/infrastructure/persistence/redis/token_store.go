// Package redis 提供 Redis 限流与令牌吊销实现
package redis

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lumen-lms-api/internal/domain/service"
)

// RefreshTokenStore RefreshToken 吊销存储
// 以 jti 为键写入吊销标记，TTL 取 token 剩余生命周期，到期自动清理
type RefreshTokenStore struct {
	client *Client
}

// NewRefreshTokenStore 创建吊销存储
func NewRefreshTokenStore(client *Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

var _ service.RefreshTokenStore = (*RefreshTokenStore)(nil)

func revocationKey(jti string) string {
	return fmt.Sprintf("token:revoked:%s", jti)
}

// Revoke 吊销指定 jti
func (s *RefreshTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "tokenstore.Revoke")
	span.SetAttributes(attribute.String("token.jti", jti))
	defer span.End()

	if ttl <= 0 {
		// 已过期的 token 无需入库，解析阶段就会被拒绝
		return nil
	}
	if err := s.client.Set(ctx, revocationKey(jti), "1", ttl); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked 检查 jti 是否已吊销
func (s *RefreshTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, span := tracer.Start(ctx, "tokenstore.IsRevoked")
	span.SetAttributes(attribute.String("token.jti", jti))
	defer span.End()

	revoked, err := s.client.Exists(ctx, revocationKey(jti))
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}
