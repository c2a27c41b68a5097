// Package service 定义跨层稳定契约（port）
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
)

// UsageRecordInput 一次 AI 调用的可计费与可观测数据
type UsageRecordInput struct {
	TenantID string
	UserID   string
	Feature  entity.AIFeature

	Provider string
	Model    string

	PromptTokens     int
	CompletionTokens int
	Cost             decimal.Decimal
	DurationMs       int
}

// UsageRecorder 负责记录 AI 调用流水
// 约定：实现应 best-effort，不阻塞主业务流程
type UsageRecorder interface {
	Record(ctx context.Context, in UsageRecordInput) error
}
