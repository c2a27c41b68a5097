// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/application/quota"
)

// ChatRequest AI 聊天请求
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=32768"`
	Model   string `json:"model,omitempty"`
}

// SummarizeRequest 摘要生成请求
type SummarizeRequest struct {
	Content string `json:"content" binding:"required,max=131072"`
	Model   string `json:"model,omitempty"`
}

// QuizRequest 测验生成请求
type QuizRequest struct {
	Topic string `json:"topic" binding:"required,max=1024"`
	// QuestionCount 题目数量，默认 5
	QuestionCount int    `json:"question_count,omitempty"`
	Model         string `json:"model,omitempty"`
}

// AIResponse AI 调用响应
type AIResponse struct {
	Content          string            `json:"content"`
	Provider         string            `json:"provider"`
	Model            string            `json:"model"`
	TokensPrompt     int               `json:"tokens_prompt"`
	TokensCompletion int               `json:"tokens_completion"`
	Cost             string            `json:"cost"`
	DurationMs       int               `json:"duration_ms"`
	Usage            *quota.UsageStats `json:"usage,omitempty"`
}

// NewAIResponse 从门控结果构建响应
func NewAIResponse(r *aigate.Result) *AIResponse {
	return &AIResponse{
		Content:          r.Content,
		Provider:         r.Provider,
		Model:            r.Model,
		TokensPrompt:     r.TokensPrompt,
		TokensCompletion: r.TokensCompletion,
		Cost:             r.Cost.StringFixed(4),
		DurationMs:       r.DurationMs,
		Usage:            r.Usage,
	}
}
