// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/interfaces/http/dto"
	"lumen-lms-api/pkg/logger"
	"lumen-lms-api/pkg/utils"
)

// 边界错误类别，客户端按这些稳定字符串分支
const (
	errTypeQuotaExceeded     = "quota_exceeded"
	errTypeRateLimitExceeded = "rate_limit_exceeded"
	errTypeNotAMember        = "not_a_member"
	errTypeTenantNotFound    = "tenant_not_found"
	errTypeAIServiceError    = "ai_service_error"
)

// toPagination 将分页请求转为仓储层分页参数
func toPagination(page dto.PageRequest) repository.Pagination {
	return repository.NewPagination(page.Page, page.PageSize)
}

// respondError 将领域错误映射为 HTTP 响应
// 每类错误有固定的状态码与 error_type；未识别的错误按 500 兜底
func respondError(c *gin.Context, err error) {
	var rateErr *service.RateLimitExceededError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		dto.ErrorWithDetail(c, http.StatusTooManyRequests, "rate limit exceeded", &dto.ErrorDetail{
			ErrorType:         errTypeRateLimitExceeded,
			Details:           rateErr.Error(),
			RetryAfterSeconds: rateErr.RetryAfterSeconds,
		})
		return
	}

	var quotaErr *quota.QuotaExceededError
	if errors.As(err, &quotaErr) {
		dto.ErrorWithDetail(c, http.StatusTooManyRequests, "monthly quota exceeded", &dto.ErrorDetail{
			ErrorType: errTypeQuotaExceeded,
			Details:   quotaErr.Error(),
		})
		return
	}

	var aiErr *aigate.AIServiceError
	if errors.As(err, &aiErr) {
		// 上游故障与配额拒绝必须可区分：配额未被扣减
		logger.Error(c.Request.Context(), "ai provider call failed", aiErr)
		dto.ErrorWithDetail(c, http.StatusServiceUnavailable, "ai service unavailable", &dto.ErrorDetail{
			ErrorType: errTypeAIServiceError,
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrTenantNotFound):
		dto.ErrorWithDetail(c, http.StatusForbidden, "tenant not found", &dto.ErrorDetail{
			ErrorType: errTypeTenantNotFound,
		})
	case errors.Is(err, auth.ErrNotAMember):
		dto.ErrorWithDetail(c, http.StatusForbidden, "not a member of tenant", &dto.ErrorDetail{
			ErrorType: errTypeNotAMember,
		})
	case errors.Is(err, utils.ErrExpiredToken):
		dto.Unauthorized(c, "token expired")
	case errors.Is(err, utils.ErrInvalidToken), errors.Is(err, utils.ErrMalformedToken):
		dto.Unauthorized(c, "invalid token")
	default:
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.Request.URL.Path, "method", c.Request.Method)
		dto.InternalError(c, "internal server error")
	}
}
