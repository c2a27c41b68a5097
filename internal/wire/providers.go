// Package wire 提供依赖注入配置
package wire

import (
	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/infrastructure/llm"
	"lumen-lms-api/internal/infrastructure/persistence/postgres"
	"lumen-lms-api/internal/infrastructure/persistence/redis"
	"lumen-lms-api/internal/interfaces/http/handler"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient       *postgres.Client
	TxManager      *postgres.TxManager
	TenantRepo     *postgres.TenantRepository
	UserRepo       *postgres.UserRepository
	MembershipRepo *postgres.MembershipRepository
	QuotaRepo      *postgres.QuotaRepository
	UsageEventRepo *postgres.AIUsageEventRepository

	// Redis
	RedisClient *redis.Client
	RateLimiter *redis.RateLimiter
	TokenStore  *redis.RefreshTokenStore
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRateLimits 从配置提供限流阈值
// 限流关闭时三个窗口全为 0，即全部不限
func ProvideRateLimits(cfg *config.Config) service.RateLimits {
	if !cfg.Security.RateLimit.Enabled {
		return service.RateLimits{}
	}
	return service.RateLimits{
		PerMinute: cfg.Security.RateLimit.PerMinute,
		PerHour:   cfg.Security.RateLimit.PerHour,
		PerDay:    cfg.Security.RateLimit.PerDay,
	}
}

// ProvidePlanTable 从配置提供套餐配额表
func ProvidePlanTable(cfg *config.Config) (quota.PlanTable, error) {
	return quota.PlanTableFromConfig(&cfg.Quota)
}

// ProvideTokenConfig 从配置提供 Token 签发参数
func ProvideTokenConfig(cfg *config.Config) auth.TokenConfig {
	return auth.TokenConfig{
		Secret:        cfg.Security.JWT.Secret,
		Issuer:        cfg.Security.JWT.Issuer,
		AccessTTL:     cfg.Security.JWT.Expiration,
		RefreshTTL:    cfg.Security.JWT.RefreshExpiration,
		RotateRefresh: cfg.Security.JWT.RotateRefresh,
	}
}

// ProvideLLMClient 提供默认 LLM 提供商客户端
func ProvideLLMClient(cfg *config.Config) (*llm.Client, error) {
	return llm.NewClient(&cfg.LLM)
}

// ProvideAIHandler 提供 AI 处理器（携带配额预检的预估 token 数）
func ProvideAIHandler(gate *aigate.Gate, provider service.AIProvider, cfg *config.Config) *handler.AIHandler {
	return handler.NewAIHandler(gate, provider, cfg.LLM.EstimatedTokensPerCall)
}
