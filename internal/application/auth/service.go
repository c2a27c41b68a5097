package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/pkg/logger"
	"lumen-lms-api/pkg/metrics"
	"lumen-lms-api/pkg/utils"
)

var (
	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 邮箱或密码不正确
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRegistrationClosed 租户未开放公开注册
	ErrRegistrationClosed = errors.New("tenant registration is closed")
)

// RegisterInput 注册输入
type RegisterInput struct {
	Email           string
	Password        string
	Name            string
	TenantSubdomain string
	// Role 申请角色；teacher 会进入待审批状态
	Role entity.MemberRole
}

// AuthResult 注册/登录/切换租户的统一结果
type AuthResult struct {
	User       *entity.User
	Tenant     *entity.Tenant
	Membership *entity.Membership
	Pair       *utils.TokenPair
}

// Service 账户服务
// 编排注册、登录、租户切换与登出；Token 语义全部委托给 TokenService
type Service struct {
	userRepo       repository.UserRepository
	tenantRepo     repository.TenantRepository
	membershipRepo repository.MembershipRepository
	authorizer     *TenantSwitchAuthorizer
	tokens         *TokenService
	revocations    service.RefreshTokenStore
}

// NewService 创建账户服务
func NewService(
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	membershipRepo repository.MembershipRepository,
	authorizer *TenantSwitchAuthorizer,
	tokens *TokenService,
	revocations service.RefreshTokenStore,
) *Service {
	return &Service{
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		authorizer:     authorizer,
		tokens:         tokens,
		revocations:    revocations,
	}
}

// Register 注册用户并加入指定租户
// 角色只允许 student/teacher；teacher 需要管理员审批后才能生成测验
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	tenant, err := s.tenantRepo.GetBySubdomain(ctx, in.TenantSubdomain)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if tenant == nil || !tenant.IsActive() {
		return nil, ErrTenantNotFound
	}
	if !tenant.Settings.AllowPublicRegistration {
		return nil, ErrRegistrationClosed
	}

	role := in.Role
	if role == "" {
		role = entity.MemberRoleStudent
	}
	if role != entity.MemberRoleStudent && role != entity.MemberRoleTeacher {
		return nil, fmt.Errorf("role not allowed at registration: %s", role)
	}

	taken, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	user := entity.NewUser(in.Email, in.Name)
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	membership := entity.NewMembership(user.ID, tenant.ID, role)
	if role == entity.MemberRoleTeacher {
		membership.TeacherApproval = entity.TeacherApprovalPending
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	pair, err := s.tokens.Issue(ctx, user, tenant, membership)
	if err != nil {
		return nil, err
	}
	metrics.TokenIssuedTotal.WithLabelValues(tenant.ID, "register").Inc()

	logger.Info(ctx, "user registered",
		"user_id", user.ID, "tenant_id", tenant.ID, "role", string(role))

	return &AuthResult{User: user, Tenant: tenant, Membership: membership, Pair: pair}, nil
}

// Login 邮箱密码登录
// tenantSubdomain 为空时选择确定性默认租户；凭证错误与用户不存在
// 返回同一个错误，不泄露邮箱是否注册
func (s *Service) Login(ctx context.Context, email, password, tenantSubdomain string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	var membership *entity.Membership
	if tenantSubdomain != "" {
		tenant, err := s.tenantRepo.GetBySubdomain(ctx, tenantSubdomain)
		if err != nil {
			return nil, fmt.Errorf("lookup tenant: %w", err)
		}
		if tenant == nil {
			return nil, ErrTenantNotFound
		}
		membership, err = s.authorizer.Authorize(ctx, user.ID, tenant.ID)
		if err != nil {
			return nil, err
		}
	} else {
		membership, err = s.authorizer.DefaultMembership(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	tenant, err := s.tenantRepo.GetByID(ctx, membership.TenantID)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if tenant == nil || !tenant.IsActive() {
		return nil, ErrTenantNotFound
	}

	pair, err := s.tokens.Issue(ctx, user, tenant, membership)
	if err != nil {
		return nil, err
	}
	metrics.TokenIssuedTotal.WithLabelValues(tenant.ID, "login").Inc()

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login", "error", err, "user_id", user.ID)
	}

	return &AuthResult{User: user, Tenant: tenant, Membership: membership, Pair: pair}, nil
}

// Refresh 换发新 Token 对
// targetTenantID 为空时沿用 RefreshToken 中的租户声明，非空时等同于切换租户
func (s *Service) Refresh(ctx context.Context, refreshToken, targetTenantID string) (*utils.TokenPair, *entity.Membership, error) {
	return s.tokens.RefreshWithTenant(ctx, refreshToken, targetTenantID)
}

// SwitchTenant 切换租户：用 RefreshToken 换发绑定目标租户的 Token 对
func (s *Service) SwitchTenant(ctx context.Context, refreshToken, targetTenantID string) (*AuthResult, error) {
	pair, membership, err := s.tokens.RefreshWithTenant(ctx, refreshToken, targetTenantID)
	if err != nil {
		metrics.TenantSwitchTotal.WithLabelValues("denied").Inc()
		return nil, err
	}
	metrics.TenantSwitchTotal.WithLabelValues("ok").Inc()

	tenant, err := s.tenantRepo.GetByID(ctx, membership.TenantID)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, membership.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	metrics.TokenIssuedTotal.WithLabelValues(membership.TenantID, "switch").Inc()

	return &AuthResult{User: user, Tenant: tenant, Membership: membership, Pair: pair}, nil
}

// Logout 登出：吊销 RefreshToken
// AccessToken 保持无状态，等待自然过期
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.jwt.ParseToken(refreshToken)
	if err != nil {
		// 已过期或不合法的 token 无需吊销
		return nil
	}
	if claims.Type != utils.TokenTypeRefresh || s.revocations == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revocations.Revoke(ctx, claims.ID, ttl)
}

// MembershipView 成员关系及其租户视图
type MembershipView struct {
	Membership *entity.Membership
	Tenant     *entity.Tenant
}

// Memberships 列出用户全部可用成员关系（停用租户与已撤销的被过滤）
func (s *Service) Memberships(ctx context.Context, userID string) ([]*MembershipView, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	views := make([]*MembershipView, 0, len(memberships))
	for _, m := range memberships {
		if !m.IsActive() {
			continue
		}
		tenant, err := s.tenantRepo.GetByID(ctx, m.TenantID)
		if err != nil {
			return nil, fmt.Errorf("lookup tenant: %w", err)
		}
		if tenant == nil || !tenant.IsActive() {
			continue
		}
		views = append(views, &MembershipView{Membership: m, Tenant: tenant})
	}
	return views, nil
}
