package auth

import (
	"context"
	"fmt"
	"time"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/pkg/logger"
	"lumen-lms-api/pkg/utils"
)

// TokenConfig Token 签发配置
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RotateRefresh 开启刷新轮换：旧 RefreshToken 刷新后立即吊销，
	// 重放被拒绝。需要配合吊销存储
	RotateRefresh bool
}

// TokenService 签发与校验绑定租户上下文的 Token 对
// 签发是无状态的（除可选的吊销存储外不落任何持久化）；
// Validate 不回查成员关系——需要新鲜度的调用方走 RefreshWithTenant
type TokenService struct {
	jwt         *utils.JWTManager
	cfg         TokenConfig
	authorizer  *TenantSwitchAuthorizer
	revocations service.RefreshTokenStore
}

// NewTokenService 创建 Token 服务
// revocations 可为 nil（未开启轮换时不需要）
func NewTokenService(cfg TokenConfig, authorizer *TenantSwitchAuthorizer, revocations service.RefreshTokenStore) *TokenService {
	return &TokenService{
		jwt:         utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		cfg:         cfg,
		authorizer:  authorizer,
		revocations: revocations,
	}
}

// AccessTTL 返回 AccessToken 生命周期
func (s *TokenService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

// RefreshTTL 返回 RefreshToken 生命周期
func (s *TokenService) RefreshTTL() time.Duration {
	return s.cfg.RefreshTTL
}

// Issue 为用户签发绑定指定租户的 Token 对
// 要求调用方已确认 membership 属于 (user, tenant) 且可用——
// 通常经由 TenantSwitchAuthorizer 或注册/登录流程获得
func (s *TokenService) Issue(ctx context.Context, user *entity.User, tenant *entity.Tenant, membership *entity.Membership) (*utils.TokenPair, error) {
	if !tenant.IsActive() {
		return nil, ErrTenantNotFound
	}
	if membership == nil || !membership.IsActive() || membership.TenantID != tenant.ID || membership.UserID != user.ID {
		return nil, ErrNotAMember
	}

	pair, err := s.jwt.GenerateTokenPair(utils.TenantClaims{
		UserID:          user.ID,
		TenantID:        tenant.ID,
		TenantSubdomain: tenant.Subdomain,
		Role:            string(membership.Role),
	}, s.cfg.AccessTTL, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token pair: %w", err)
	}
	return pair, nil
}

// Validate 校验 AccessToken 并返回声明
// 只做密码学校验与类型检查，失败时关闭式拒绝（不返回部分声明）
func (s *TokenService) Validate(tokenString string) (*utils.Claims, error) {
	claims, err := s.jwt.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != utils.TokenTypeAccess {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}

// RefreshWithTenant 用 RefreshToken 换发新 Token 对，可选切换租户
// targetTenantID 为空时沿用 RefreshToken 中的租户（纯刷新）；
// 无论是否切换，都会经由授权器重新校验成员关系
func (s *TokenService) RefreshWithTenant(ctx context.Context, refreshToken, targetTenantID string) (*utils.TokenPair, *entity.Membership, error) {
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.Type != utils.TokenTypeRefresh {
		return nil, nil, utils.ErrInvalidToken
	}

	if s.cfg.RotateRefresh && s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("check refresh revocation: %w", err)
		}
		if revoked {
			return nil, nil, utils.ErrInvalidToken
		}
	}

	target := targetTenantID
	if target == "" {
		target = claims.TenantID
	}

	tenant, membership, err := s.authorizer.AuthorizeWithTenant(ctx, claims.UserID, target)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.jwt.GenerateTokenPair(utils.TenantClaims{
		UserID:          claims.UserID,
		TenantID:        tenant.ID,
		TenantSubdomain: tenant.Subdomain,
		Role:            string(membership.Role),
	}, s.cfg.AccessTTL, s.cfg.RefreshTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token pair: %w", err)
	}

	// 新对签发成功后再吊销旧 token，避免刷新失败把用户登出
	if s.cfg.RotateRefresh && s.revocations != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
				logger.Warn(ctx, "failed to revoke rotated refresh token", "error", err, "jti", claims.ID)
			}
		}
	}

	return pair, membership, nil
}
