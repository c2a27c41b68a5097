// Package service 定义跨层稳定契约（port）
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
)

// AIRequest 一次 AI 调用的输入
type AIRequest struct {
	Feature entity.AIFeature
	Prompt  string
	// Model 可选，为空时使用提供商默认模型
	Model string
	// MaxTokens 可选的补全上限
	MaxTokens int
}

// AIResult 一次 AI 调用的结果与计费数据
type AIResult struct {
	Content          string
	Provider         string
	Model            string
	TokensPrompt     int
	TokensCompletion int
	Cost             decimal.Decimal
	DurationMs       int
}

// TotalTokens 本次调用消耗的 token 总量
func (r *AIResult) TotalTokens() int64 {
	return int64(r.TokensPrompt + r.TokensCompletion)
}

// AIProvider AI 提供商适配器接口
// 实现位于基础设施层；调用失败时返回提供商自身的错误，由使用方包装
type AIProvider interface {
	Invoke(ctx context.Context, req AIRequest) (*AIResult, error)
}

// ProviderCall 延迟执行的提供商调用
// AI 用量门控在限流与配额检查通过后才触发它
type ProviderCall func(ctx context.Context) (*AIResult, error)
