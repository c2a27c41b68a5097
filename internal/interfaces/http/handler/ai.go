// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/interfaces/http/dto"
	"lumen-lms-api/internal/interfaces/http/middleware"
)

// AIHandler AI 功能处理器
// 每个端点把一次提供商调用交给门控执行，限流/配额/落账均在门控内完成
type AIHandler struct {
	gate     *aigate.Gate
	provider service.AIProvider
	// estimatedTokens 配额预检用的单次调用预估 token 数
	estimatedTokens int64
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(gate *aigate.Gate, provider service.AIProvider, estimatedTokens int64) *AIHandler {
	if estimatedTokens <= 0 {
		estimatedTokens = 2000
	}
	return &AIHandler{gate: gate, provider: provider, estimatedTokens: estimatedTokens}
}

// Chat AI 聊天
// POST /api/v1/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	h.run(c, entity.AIFeatureChat, service.AIRequest{
		Feature: entity.AIFeatureChat,
		Prompt:  req.Message,
		Model:   req.Model,
	})
}

// Summarize 内容摘要
// POST /api/v1/ai/summarize
func (h *AIHandler) Summarize(c *gin.Context) {
	var req dto.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	h.run(c, entity.AIFeatureSummary, service.AIRequest{
		Feature: entity.AIFeatureSummary,
		Prompt:  "Summarize the following course material concisely:\n\n" + req.Content,
		Model:   req.Model,
	})
}

// Quiz 测验生成（仅管理员或已审批教师，由路由上的 RBAC 把关）
// POST /api/v1/ai/quiz
func (h *AIHandler) Quiz(c *gin.Context) {
	var req dto.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	count := req.QuestionCount
	if count <= 0 {
		count = 5
	}
	h.run(c, entity.AIFeatureQuiz, service.AIRequest{
		Feature: entity.AIFeatureQuiz,
		Prompt: fmt.Sprintf(
			"Generate a quiz with %d multiple-choice questions about the following topic. "+
				"Return the questions with four options each and mark the correct answer.\n\nTopic: %s",
			count, req.Topic),
		Model: req.Model,
	})
}

// run 经门控执行一次提供商调用并写响应
func (h *AIHandler) run(c *gin.Context, feature entity.AIFeature, req service.AIRequest) {
	tenant := middleware.TenantFromGin(c)
	userID := c.GetString("user_id")
	if tenant == nil || userID == "" {
		dto.Unauthorized(c, "missing tenant context")
		return
	}

	result, err := h.gate.Execute(c.Request.Context(), userID, tenant, feature, h.estimatedTokens,
		func(ctx context.Context) (*service.AIResult, error) {
			return h.provider.Invoke(ctx, req)
		})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.NewAIResponse(result))
}
