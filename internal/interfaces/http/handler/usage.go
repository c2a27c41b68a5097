// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/interfaces/http/dto"
	"lumen-lms-api/internal/interfaces/http/middleware"
)

// UsageHandler 用量 introspection 处理器
type UsageHandler struct {
	ledger    *quota.Ledger
	quotaRepo repository.QuotaRepository
	limiter   service.RateLimiter
	limits    service.RateLimits
}

// NewUsageHandler 创建用量处理器
func NewUsageHandler(ledger *quota.Ledger, quotaRepo repository.QuotaRepository, limiter service.RateLimiter, limits service.RateLimits) *UsageHandler {
	return &UsageHandler{ledger: ledger, quotaRepo: quotaRepo, limiter: limiter, limits: limits}
}

// Quota 当前月度配额用量
// GET /api/v1/usage/quota
func (h *UsageHandler) Quota(c *gin.Context) {
	tenant := middleware.TenantFromGin(c)
	userID := c.GetString("user_id")
	if tenant == nil || userID == "" {
		dto.Unauthorized(c, "missing tenant context")
		return
	}

	// 懒创建：本月还没有记录时按套餐上限生成零用量视图
	record, err := h.ledger.GetOrCreate(c.Request.Context(), userID, tenant)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.UsageResponse{
		TenantID: tenant.ID,
		UserID:   userID,
		Stats:    h.ledger.Stats(record),
	})
}

// RateLimit 当前限流窗口计数
// GET /api/v1/usage/rate-limit
func (h *UsageHandler) RateLimit(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		dto.Unauthorized(c, "missing user context")
		return
	}

	usage, err := h.limiter.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.RateUsageResponse{Limits: h.limits, Usage: *usage})
}

// History 历史月度用量（账单审计）
// GET /api/v1/usage/history
func (h *UsageHandler) History(c *gin.Context) {
	tenant := middleware.TenantFromGin(c)
	userID := c.GetString("user_id")
	if tenant == nil || userID == "" {
		dto.Unauthorized(c, "missing tenant context")
		return
	}

	page := dto.BindPage(c)
	result, err := h.quotaRepo.ListByUser(c.Request.Context(), userID, tenant.ID, toPagination(page))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]*dto.UsageHistoryItem, 0, len(result.Items))
	for _, q := range result.Items {
		items = append(items, &dto.UsageHistoryItem{
			Month: q.Month,
			Stats: h.ledger.Stats(q),
		})
	}
	dto.SuccessWithPage(c, dto.UsageHistoryResponse{Items: items},
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}
