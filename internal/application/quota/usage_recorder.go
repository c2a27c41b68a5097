package quota

import (
	"context"
	"fmt"
	"strings"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/domain/service"
)

// AIUsageRecorder 记录 AI 调用流水（best-effort，不阻塞主流程）
type AIUsageRecorder struct {
	usageRepo repository.AIUsageEventRepository
}

// NewAIUsageRecorder 创建流水记录器
func NewAIUsageRecorder(usageRepo repository.AIUsageEventRepository) *AIUsageRecorder {
	return &AIUsageRecorder{usageRepo: usageRepo}
}

// Record 落一条调用流水
func (r *AIUsageRecorder) Record(ctx context.Context, in service.UsageRecordInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}

	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	evt := &entity.AIUsageEvent{
		TenantID:         tenantID,
		UserID:           in.UserID,
		Feature:          in.Feature,
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		Cost:             in.Cost,
		DurationMs:       in.DurationMs,
	}
	return r.usageRepo.Create(ctx, evt)
}
