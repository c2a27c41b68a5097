//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"lumen-lms-api/internal/application/aigate"
	"lumen-lms-api/internal/application/auth"
	"lumen-lms-api/internal/application/quota"
	"lumen-lms-api/internal/application/tenant"
	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/domain/service"
	"lumen-lms-api/internal/infrastructure/llm"
	"lumen-lms-api/internal/infrastructure/persistence/postgres"
	"lumen-lms-api/internal/infrastructure/persistence/redis"
	"lumen-lms-api/internal/interfaces/http/handler"
	"lumen-lms-api/internal/interfaces/http/router"
)

// InitializeDataLayer 初始化数据层
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		AppSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewTenantRepository,
	postgres.NewUserRepository,
	postgres.NewMembershipRepository,
	postgres.NewQuotaRepository,
	postgres.NewAIUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.TenantRepository), new(*postgres.TenantRepository)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.MembershipRepository), new(*postgres.MembershipRepository)),
	wire.Bind(new(repository.QuotaRepository), new(*postgres.QuotaRepository)),
	wire.Bind(new(repository.AIUsageEventRepository), new(*postgres.AIUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideRateLimits,
	redis.NewRateLimiter,
	redis.NewRefreshTokenStore,
	wire.Bind(new(service.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(service.RefreshTokenStore), new(*redis.RefreshTokenStore)),
)

// AppSet 应用服务提供者集合
var AppSet = wire.NewSet(
	ProvidePlanTable,
	quota.NewLedger,
	quota.NewAIUsageRecorder,
	wire.Bind(new(service.UsageRecorder), new(*quota.AIUsageRecorder)),
	auth.NewTenantSwitchAuthorizer,
	ProvideTokenConfig,
	auth.NewTokenService,
	auth.NewService,
	tenant.NewService,
	ProvideLLMClient,
	wire.Bind(new(service.AIProvider), new(*llm.Client)),
	aigate.NewGate,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewTenantHandler,
	ProvideAIHandler,
	handler.NewUsageHandler,
	wire.Struct(new(router.Handlers), "*"),
	wire.Struct(new(router.Guards), "*"),
	router.New,
)
