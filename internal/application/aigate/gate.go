// Package aigate 提供 AI 调用的用量门控
//
// 每次请求按固定次序推进：限流检查 → 配额检查 → 提供商调用 → 落账。
// 次序是硬性契约：廉价检查先拒掉滥用流量，落账只在真实用量已知后发生。
// 提供商调用失败不落配额账，但限流计数已发生且不回滚
package aigate

import (
	"context"
	"errors"
	"fmt"

	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/pkg/logger"
	"lumen-lms-api/pkg/metrics"

	"github.com/shopspring/decimal"
)

// AIServiceError 提供商调用失败
// 包装原始错误；命中它意味着配额未被扣减
type AIServiceError struct {
	Feature entity.AIFeature
	Err     error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("ai provider call failed: feature=%s: %v", e.Feature, e.Err)
}

func (e *AIServiceError) Unwrap() error {
	return e.Err
}

// Result 门控放行并完成落账后的结果
type Result struct {
	Content          string            `json:"content"`
	Provider         string            `json:"provider"`
	Model            string            `json:"model"`
	TokensPrompt     int               `json:"tokens_prompt"`
	TokensCompletion int               `json:"tokens_completion"`
	Cost             decimal.Decimal   `json:"cost"`
	DurationMs       int               `json:"duration_ms"`
	Usage            *quota.UsageStats `json:"usage"`
}

// Gate AI 用量门控
type Gate struct {
	limiter  service.RateLimiter
	ledger   *quota.Ledger
	recorder service.UsageRecorder
}

// NewGate 创建门控
// recorder 可为 nil（不落调用流水）
func NewGate(limiter service.RateLimiter, ledger *quota.Ledger, recorder service.UsageRecorder) *Gate {
	return &Gate{
		limiter:  limiter,
		ledger:   ledger,
		recorder: recorder,
	}
}

// Execute 围绕一次提供商调用执行完整的门控流程
// estimatedTokens 用于配额预检（真实值在调用返回后才可知）
func (g *Gate) Execute(ctx context.Context, userID string, tenant *entity.Tenant, feature entity.AIFeature, estimatedTokens int64, call service.ProviderCall) (*Result, error) {
	// 1. 限流：即使随后被配额拒绝，这里的计数也保留，
	// 否则限流对滥用客户端不起约束作用
	if err := g.limiter.CheckAndIncrement(ctx, userID); err != nil {
		var rle *service.RateLimitExceededError
		if errors.As(err, &rle) {
			metrics.RateLimitRejectedTotal.WithLabelValues(string(rle.Window)).Inc()
			metrics.AIRequestsTotal.WithLabelValues(string(feature), "rate_limited").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	// 2. 配额：只校验，不落账
	record, err := g.ledger.GetOrCreate(ctx, userID, tenant)
	if err != nil {
		return nil, err
	}
	if err := g.ledger.CheckAndReserve(record, feature, estimatedTokens); err != nil {
		var qe *quota.QuotaExceededError
		if errors.As(err, &qe) {
			metrics.QuotaRejectedTotal.WithLabelValues(string(feature), qe.Dimension).Inc()
			metrics.AIRequestsTotal.WithLabelValues(string(feature), "quota_rejected").Inc()
		}
		return nil, err
	}

	// 3. 提供商调用：失败不落账
	aiResult, err := call(ctx)
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(string(feature), "provider_error").Inc()
		return nil, &AIServiceError{Feature: feature, Err: err}
	}

	// 4. 按真实用量落账
	actualTokens := aiResult.TotalTokens()
	if err := g.ledger.Commit(ctx, record, feature, actualTokens, aiResult.Cost); err != nil {
		// 调用已成功，落账失败只告警不吞掉结果
		logger.Error(ctx, "quota commit failed after successful provider call", err,
			"feature", feature, "tenant_id", tenant.ID, "user_id", userID)
	}

	metrics.AIRequestsTotal.WithLabelValues(string(feature), "ok").Inc()
	metrics.AIRequestDuration.WithLabelValues(string(feature)).Observe(float64(aiResult.DurationMs) / 1000)
	metrics.AITokensConsumed.WithLabelValues(tenant.ID, string(feature)).Add(float64(actualTokens))

	if g.recorder != nil {
		if err := g.recorder.Record(ctx, service.UsageRecordInput{
			TenantID:         tenant.ID,
			UserID:           userID,
			Feature:          feature,
			Provider:         aiResult.Provider,
			Model:            aiResult.Model,
			PromptTokens:     aiResult.TokensPrompt,
			CompletionTokens: aiResult.TokensCompletion,
			Cost:             aiResult.Cost,
			DurationMs:       aiResult.DurationMs,
		}); err != nil {
			logger.Warn(ctx, "failed to record ai usage event", "error", err)
		}
	}

	return &Result{
		Content:          aiResult.Content,
		Provider:         aiResult.Provider,
		Model:            aiResult.Model,
		TokensPrompt:     aiResult.TokensPrompt,
		TokensCompletion: aiResult.TokensCompletion,
		Cost:             aiResult.Cost,
		DurationMs:       aiResult.DurationMs,
		Usage:            g.ledger.Stats(record),
	}, nil
}
