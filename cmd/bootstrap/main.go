// Package main 系统引导：建表并播种首个租户与管理员
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"lumen-lms-api/internal/config"
	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层
	dataLayer, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	fmt.Println("Migrating database schema...")
	err = dataLayer.PgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.Tenant{},
		&entity.User{},
		&entity.Membership{},
		&entity.UsageQuota{},
		&entity.AIUsageEvent{},
	)
	if err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 创建默认租户
	subdomain := os.Getenv("BOOTSTRAP_TENANT_SUBDOMAIN")
	if subdomain == "" {
		subdomain = "demo"
	}

	tenant, err := dataLayer.TenantRepo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		log.Fatalf("failed to check tenant existence: %v", err)
	}
	if tenant == nil {
		fmt.Printf("Creating default tenant: %s...\n", subdomain)
		tenant = entity.NewTenant("Demo School", subdomain, entity.TenantPlanBasic)
		if err := dataLayer.TenantRepo.Create(ctx, tenant); err != nil {
			log.Fatalf("failed to create default tenant: %v", err)
		}
		fmt.Printf("Default tenant created with ID: %s\n", tenant.ID)
	} else {
		fmt.Printf("Default tenant already exists with ID: %s\n", tenant.ID)
	}

	// 5. 创建首个管理员
	adminEmail := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}

	admin, err := dataLayer.UserRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}
	if admin == nil {
		fmt.Printf("Creating admin user: %s...\n", adminEmail)
		admin = entity.NewUser(adminEmail, "System Admin")
		if err := admin.SetPassword(adminPassword); err != nil {
			log.Fatalf("failed to set admin password: %v", err)
		}
		if err := dataLayer.UserRepo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		fmt.Printf("Admin user created with ID: %s\n", admin.ID)
	} else {
		fmt.Printf("Admin user already exists with ID: %s\n", admin.ID)
	}

	// 6. 绑定管理员成员关系
	membership, err := dataLayer.MembershipRepo.GetByUserAndTenant(ctx, admin.ID, tenant.ID)
	if err != nil {
		log.Fatalf("failed to check admin membership: %v", err)
	}
	if membership == nil {
		membership = entity.NewMembership(admin.ID, tenant.ID, entity.MemberRoleAdmin)
		if err := dataLayer.MembershipRepo.Create(ctx, membership); err != nil {
			log.Fatalf("failed to create admin membership: %v", err)
		}
		fmt.Println("Admin membership created")
	} else {
		fmt.Println("Admin membership already exists")
	}

	fmt.Println("Bootstrap completed successfully")
}
