package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/domain/repository"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
)

func newTestService() *Service {
	return NewService(memory.NewTenantRepository(), memory.NewMembershipRepository())
}

func TestCreateTenant(t *testing.T) {
	svc := newTestService()

	tenant, err := svc.Create(context.Background(), "Acme School", "acme", entity.TenantPlanPro)
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.ID)
	assert.Equal(t, entity.TenantPlanPro, tenant.Plan)
	assert.Equal(t, entity.TenantStatusActive, tenant.Status)
	assert.True(t, tenant.Settings.AllowPublicRegistration)
}

func TestCreateTenantDefaultPlan(t *testing.T) {
	svc := newTestService()

	tenant, err := svc.Create(context.Background(), "Acme School", "acme", "")
	require.NoError(t, err)
	assert.Equal(t, entity.TenantPlanBasic, tenant.Plan)
}

func TestCreateTenantInvalidSubdomain(t *testing.T) {
	svc := newTestService()

	for _, subdomain := range []string{"", "UPPER", "has space", "-leading", "trailing-", "a.b"} {
		_, err := svc.Create(context.Background(), "Acme School", subdomain, entity.TenantPlanBasic)
		assert.ErrorIs(t, err, ErrInvalidSubdomain, "subdomain %q", subdomain)
	}
}

func TestCreateTenantInvalidPlan(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), "Acme School", "acme", entity.TenantPlan("platinum"))
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCreateTenantDuplicateSubdomain(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), "Acme School", "acme", entity.TenantPlanBasic)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Other School", "acme", entity.TenantPlanBasic)
	assert.ErrorIs(t, err, ErrSubdomainTaken)
}

func TestGetTenantNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusSuspendAndRestore(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "Acme School", "acme", entity.TenantPlanBasic)
	require.NoError(t, err)

	suspended, err := svc.UpdateStatus(ctx, tenant.ID, entity.TenantStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantStatusSuspended, suspended.Status)

	restored, err := svc.UpdateStatus(ctx, tenant.ID, entity.TenantStatusActive)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantStatusActive, restored.Status)
}

func TestUpdateStatusIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "Acme School", "acme", entity.TenantPlanBasic)
	require.NoError(t, err)

	same, err := svc.UpdateStatus(ctx, tenant.ID, entity.TenantStatusActive)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantStatusActive, same.Status)
}

func TestListTenantsPaged(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, subdomain := range []string{"alpha", "beta", "gamma"} {
		_, err := svc.Create(ctx, subdomain, subdomain, entity.TenantPlanBasic)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, repository.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
}
