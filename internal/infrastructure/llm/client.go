// Package llm 提供 OpenAI 兼容接口的 LLM 提供商适配器
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/service"
)

var tracer = otel.Tracer("llm")

var million = decimal.NewFromInt(1_000_000)

// Client OpenAI 兼容的聊天补全客户端
// 实现 service.AIProvider；费用按配置单价折算为十进制金额
type Client struct {
	name            string
	cfg             config.ProviderConfig
	httpClient      *http.Client
	promptPrice     decimal.Decimal
	completionPrice decimal.Decimal
}

// NewClient 根据配置创建默认提供商的客户端
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	name := cfg.DefaultProvider
	pc, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider not configured: %s", name)
	}
	if pc.BaseURL == "" {
		return nil, fmt.Errorf("llm provider %s: base_url is required", name)
	}

	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	promptPrice, err := parsePrice(pc.PromptPricePerMillion)
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: invalid prompt price: %w", name, err)
	}
	completionPrice, err := parsePrice(pc.CompletionPricePerMillion)
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: invalid completion price: %w", name, err)
	}

	return &Client{
		name:            name,
		cfg:             pc,
		httpClient:      &http.Client{Timeout: timeout},
		promptPrice:     promptPrice,
		completionPrice: completionPrice,
	}, nil
}

var _ service.AIProvider = (*Client)(nil)

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Invoke 执行一次聊天补全
func (c *Client) Invoke(ctx context.Context, req service.AIRequest) (*service.AIResult, error) {
	ctx, span := tracer.Start(ctx, "llm.Invoke")
	span.SetAttributes(
		attribute.String("llm.provider", c.name),
		attribute.String("llm.feature", string(req.Feature)),
	)
	defer span.End()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read llm response: %w", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode llm response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if completion.Error != nil {
			msg = completion.Error.Message
		}
		err := fmt.Errorf("llm returned status %d: %s", resp.StatusCode, msg)
		span.RecordError(err)
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	duration := time.Since(start)
	result := &service.AIResult{
		Content:          completion.Choices[0].Message.Content,
		Provider:         c.name,
		Model:            completion.Model,
		TokensPrompt:     completion.Usage.PromptTokens,
		TokensCompletion: completion.Usage.CompletionTokens,
		Cost:             c.cost(completion.Usage.PromptTokens, completion.Usage.CompletionTokens),
		DurationMs:       int(duration.Milliseconds()),
	}
	if result.Model == "" {
		result.Model = model
	}

	span.SetAttributes(
		attribute.Int("llm.tokens_prompt", result.TokensPrompt),
		attribute.Int("llm.tokens_completion", result.TokensCompletion),
	)
	return result, nil
}

// cost 按每百万 token 单价折算费用
func (c *Client) cost(promptTokens, completionTokens int) decimal.Decimal {
	prompt := c.promptPrice.Mul(decimal.NewFromInt(int64(promptTokens))).Div(million)
	completion := c.completionPrice.Mul(decimal.NewFromInt(int64(completionTokens))).Div(million)
	return prompt.Add(completion).Round(4)
}
