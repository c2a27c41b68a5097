// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/interfaces/http/dto"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	accounts *auth.Service
	tokens   *auth.TokenService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(accounts *auth.Service, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

// authResponse 组装认证响应体
func (h *AuthHandler) authResponse(result *auth.AuthResult) *dto.AuthResponse {
	return &dto.AuthResponse{
		User:   dto.NewUserResponse(result.User),
		Tenant: dto.NewTenantBrief(result.Tenant),
		Role:   string(result.Membership.Role),
		Token: dto.TokenResponse{
			AccessToken:  result.Pair.AccessToken,
			RefreshToken: result.Pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(h.tokens.AccessTTL().Seconds()),
		},
	}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), auth.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		TenantSubdomain: req.TenantSubdomain,
		Role:            entity.MemberRole(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			dto.Conflict(c, "email already registered")
		case errors.Is(err, auth.ErrRegistrationClosed):
			dto.Forbidden(c, "tenant registration is closed")
		default:
			respondError(c, err)
		}
		return
	}
	dto.Created(c, h.authResponse(result))
}

// Login 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, req.TenantSubdomain)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			dto.Unauthorized(c, "invalid email or password")
			return
		}
		respondError(c, err)
		return
	}
	dto.Success(c, h.authResponse(result))
}

// Refresh 刷新 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	pair, _, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken, req.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.tokens.AccessTTL().Seconds()),
	})
}

// SwitchTenant 切换租户
// POST /api/v1/auth/switch-tenant
func (h *AuthHandler) SwitchTenant(c *gin.Context) {
	var req dto.SwitchTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.SwitchTenant(c.Request.Context(), req.RefreshToken, req.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, h.authResponse(result))
}

// Logout 登出（吊销 RefreshToken）
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	dto.NoContent(c)
}

// Memberships 当前用户的成员关系列表
// GET /api/v1/auth/memberships
func (h *AuthHandler) Memberships(c *gin.Context) {
	userID := c.GetString("user_id")
	views, err := h.accounts.Memberships(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]*dto.MembershipResponse, 0, len(views))
	for _, v := range views {
		items = append(items, &dto.MembershipResponse{
			TenantID:        v.Tenant.ID,
			TenantName:      v.Tenant.Name,
			TenantSubdomain: v.Tenant.Subdomain,
			Role:            string(v.Membership.Role),
			TeacherApproval: string(v.Membership.TeacherApproval),
			JoinedAt:        v.Membership.JoinedAt,
		})
	}
	dto.Success(c, dto.MembershipListResponse{Memberships: items})
}
