package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/internal/application/quota"
	tenantsvc "lumen-lms-api/internal/application/tenant"
	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
	"lumen-lms-api/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider 固定返回成功结果的提供商
type stubProvider struct{}

func (p *stubProvider) Invoke(ctx context.Context, req service.AIRequest) (*service.AIResult, error) {
	return &service.AIResult{
		Content:          "stub completion",
		Provider:         "stub",
		Model:            "stub-model",
		TokensPrompt:     120,
		TokensCompletion: 80,
		Cost:             decimal.RequireFromString("0.0100"),
		DurationMs:       5,
	}, nil
}

type apiFixture struct {
	engine  *gin.Engine
	tenants *memory.TenantRepository
}

// newAPIFixture 用内存仓储组装完整路由，走与生产一致的中间件链
func newAPIFixture(t *testing.T, limits service.RateLimits) *apiFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "lumen-lms-api"
	cfg.App.Env = "test"
	cfg.Security.CORS.AllowedOrigins = []string{"*"}

	tenants := memory.NewTenantRepository()
	users := memory.NewUserRepository()
	memberships := memory.NewMembershipRepository()
	quotaRepo := memory.NewQuotaRepository()
	tokenStore := memory.NewRefreshTokenStore()
	limiter := memory.NewRateLimiter(limits)

	seed := entity.NewTenant("Acme School", "acme", entity.TenantPlanBasic)
	require.NoError(t, tenants.Create(context.Background(), seed))

	authorizer := auth.NewTenantSwitchAuthorizer(tenants, memberships)
	tokenSvc := auth.NewTokenService(auth.TokenConfig{
		Secret:        "router-test-secret-0123456789",
		Issuer:        "lumen-lms",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		RotateRefresh: true,
	}, authorizer, tokenStore)
	accounts := auth.NewService(users, tenants, memberships, authorizer, tokenSvc, tokenStore)

	ledger := quota.NewLedger(quotaRepo, quota.DefaultPlanTable())
	gate := aigate.NewGate(limiter, ledger, nil)

	handlers := Handlers{
		Health: handler.NewHealthHandler(nil, nil),
		Auth:   handler.NewAuthHandler(accounts, tokenSvc),
		Tenant: handler.NewTenantHandler(tenantsvc.NewService(tenants, memberships)),
		AI:     handler.NewAIHandler(gate, &stubProvider{}, 2000),
		Usage:  handler.NewUsageHandler(ledger, quotaRepo, limiter, limits),
	}
	guards := Guards{Tokens: tokenSvc, TenantRepo: tenants, MembershipRepo: memberships}

	return &apiFixture{
		engine:  New(cfg, handlers, guards).Engine(),
		tenants: tenants,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// register 注册一个学生并返回 AccessToken
func (f *apiFixture) register(t *testing.T, email string) string {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":            email,
		"password":         "password123",
		"name":             "Test Student",
		"tenant_subdomain": "acme",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token struct {
				AccessToken string `json:"access_token"`
			} `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token.AccessToken)
	return resp.Data.Token.AccessToken
}

func TestRegisterChatAndQuotaFlow(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{})
	token := f.register(t, "student@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var chat struct {
		Data struct {
			Content          string `json:"content"`
			Provider         string `json:"provider"`
			TokensPrompt     int    `json:"tokens_prompt"`
			TokensCompletion int    `json:"tokens_completion"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chat))
	assert.Equal(t, "stub completion", chat.Data.Content)
	assert.Equal(t, "stub", chat.Data.Provider)
	assert.Equal(t, 120, chat.Data.TokensPrompt)

	w = f.do(t, http.MethodGet, "/api/v1/usage/quota", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var usage struct {
		Data struct {
			Stats struct {
				Features map[string]struct {
					Used       int   `json:"used"`
					TokensUsed int64 `json:"tokens_used"`
				} `json:"features"`
			} `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	assert.Equal(t, 1, usage.Data.Stats.Features["chat"].Used)
	assert.Equal(t, int64(200), usage.Data.Stats.Features["chat"].TokensUsed)
}

func TestChatRequiresToken(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{})

	w := f.do(t, http.MethodPost, "/api/v1/ai/chat", "", gin.H{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuizForbiddenForStudent(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{})
	token := f.register(t, "student@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/ai/quiz", token, gin.H{"topic": "photosynthesis"})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestRateLimitCeilingOverHTTP(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{PerMinute: 2})
	token := f.register(t, "student@example.com")

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{"message": fmt.Sprintf("msg %d", i)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{"message": "one too many"})
	require.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp struct {
		Error struct {
			ErrorType string `json:"error_type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp.Error.ErrorType)
}

func TestTenantMutationRequiresAdmin(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{})
	token := f.register(t, "student@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/tenants", token, gin.H{
		"name":      "Beta School",
		"subdomain": "beta",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t, service.RateLimits{})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/live", "", nil).Code)
}
