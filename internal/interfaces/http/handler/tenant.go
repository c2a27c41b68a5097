// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	tenantsvc "lumen-lms-api/internal/application/tenant"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/interfaces/http/dto"
)

// TenantHandler 租户处理器
type TenantHandler struct {
	tenants *tenantsvc.Service
}

// NewTenantHandler 创建租户处理器
func NewTenantHandler(tenants *tenantsvc.Service) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Create 创建租户
// POST /api/v1/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	t, err := h.tenants.Create(c.Request.Context(), req.Name, req.Subdomain, entity.TenantPlan(req.Plan))
	if err != nil {
		switch {
		case errors.Is(err, tenantsvc.ErrSubdomainTaken):
			dto.Conflict(c, "subdomain already taken")
		case errors.Is(err, tenantsvc.ErrInvalidSubdomain), errors.Is(err, tenantsvc.ErrInvalidPlan):
			dto.BadRequest(c, err.Error())
		default:
			respondError(c, err)
		}
		return
	}
	dto.Created(c, dto.NewTenantResponse(t))
}

// Get 获取租户
// GET /api/v1/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	t, err := h.tenants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tenantsvc.ErrNotFound) {
			dto.NotFound(c, "tenant not found")
			return
		}
		respondError(c, err)
		return
	}
	dto.Success(c, dto.NewTenantResponse(t))
}

// List 分页列出租户
// GET /api/v1/tenants
func (h *TenantHandler) List(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.tenants.List(c.Request.Context(), toPagination(page))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]*dto.TenantResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, dto.NewTenantResponse(t))
	}
	dto.SuccessWithPage(c, dto.TenantListResponse{Tenants: items},
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// UpdateStatus 更新租户状态
// PATCH /api/v1/tenants/:id/status
func (h *TenantHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	t, err := h.tenants.UpdateStatus(c.Request.Context(), c.Param("id"), entity.TenantStatus(req.Status))
	if err != nil {
		if errors.Is(err, tenantsvc.ErrNotFound) {
			dto.NotFound(c, "tenant not found")
			return
		}
		respondError(c, err)
		return
	}
	dto.Success(c, dto.NewTenantResponse(t))
}
