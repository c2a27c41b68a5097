// Package memory 提供内存版仓储实现
package memory

import (
	"context"
	"sync"
	"time"

	"lumen-lms-api/internal/domain/service"
)

// RefreshTokenStore 内存版 RefreshToken 吊销存储
type RefreshTokenStore struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time // jti -> 过期时间
}

// NewRefreshTokenStore 创建内存吊销存储
func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

var _ service.RefreshTokenStore = (*RefreshTokenStore)(nil)

// Revoke 吊销指定 jti
func (s *RefreshTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

// IsRevoked 检查 jti 是否已吊销
func (s *RefreshTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.revoked, jti)
		return false, nil
	}
	return true, nil
}
