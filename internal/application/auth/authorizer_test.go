package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
)

type authFixture struct {
	tenants     *memory.TenantRepository
	memberships *memory.MembershipRepository
	authorizer  *TenantSwitchAuthorizer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tenants := memory.NewTenantRepository()
	memberships := memory.NewMembershipRepository()
	return &authFixture{
		tenants:     tenants,
		memberships: memberships,
		authorizer:  NewTenantSwitchAuthorizer(tenants, memberships),
	}
}

func (f *authFixture) addTenant(t *testing.T, subdomain string, status entity.TenantStatus) *entity.Tenant {
	t.Helper()
	tenant := entity.NewTenant(subdomain, subdomain, entity.TenantPlanBasic)
	tenant.Status = status
	require.NoError(t, f.tenants.Create(context.Background(), tenant))
	return tenant
}

func (f *authFixture) addMembership(t *testing.T, userID, tenantID string, role entity.MemberRole, joinedAt time.Time) *entity.Membership {
	t.Helper()
	m := entity.NewMembership(userID, tenantID, role)
	m.JoinedAt = joinedAt
	require.NoError(t, f.memberships.Create(context.Background(), m))
	return m
}

func TestAuthorize(t *testing.T) {
	f := newAuthFixture(t)
	tenant := f.addTenant(t, "acme", entity.TenantStatusActive)
	f.addMembership(t, "user-1", tenant.ID, entity.MemberRoleTeacher, time.Now())

	membership, err := f.authorizer.Authorize(context.Background(), "user-1", tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MemberRoleTeacher, membership.Role)
}

func TestAuthorizeTenantMissing(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.authorizer.Authorize(context.Background(), "user-1", "no-such-tenant")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestAuthorizeTenantSuspended(t *testing.T) {
	f := newAuthFixture(t)
	tenant := f.addTenant(t, "acme", entity.TenantStatusSuspended)
	f.addMembership(t, "user-1", tenant.ID, entity.MemberRoleStudent, time.Now())

	// 停用租户与不存在租户对外不可区分
	_, err := f.authorizer.Authorize(context.Background(), "user-1", tenant.ID)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestAuthorizeNotAMember(t *testing.T) {
	f := newAuthFixture(t)
	tenant := f.addTenant(t, "acme", entity.TenantStatusActive)

	_, err := f.authorizer.Authorize(context.Background(), "user-1", tenant.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestAuthorizeRevokedMembership(t *testing.T) {
	f := newAuthFixture(t)
	tenant := f.addTenant(t, "acme", entity.TenantStatusActive)
	m := f.addMembership(t, "user-1", tenant.ID, entity.MemberRoleStudent, time.Now())
	require.NoError(t, f.memberships.Revoke(context.Background(), m.ID))

	_, err := f.authorizer.Authorize(context.Background(), "user-1", tenant.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestDefaultMembershipPicksMostRecentlyJoined(t *testing.T) {
	f := newAuthFixture(t)
	old := f.addTenant(t, "old-school", entity.TenantStatusActive)
	recent := f.addTenant(t, "new-school", entity.TenantStatusActive)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.addMembership(t, "user-1", old.ID, entity.MemberRoleAdmin, base)
	f.addMembership(t, "user-1", recent.ID, entity.MemberRoleStudent, base.AddDate(0, 1, 0))

	m, err := f.authorizer.DefaultMembership(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, recent.ID, m.TenantID)
}

func TestDefaultMembershipSkipsUnusableTenants(t *testing.T) {
	f := newAuthFixture(t)
	suspended := f.addTenant(t, "suspended", entity.TenantStatusSuspended)
	active := f.addTenant(t, "active", entity.TenantStatusActive)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// 最近加入的租户已停用，应跳过选下一个
	f.addMembership(t, "user-1", active.ID, entity.MemberRoleStudent, base)
	f.addMembership(t, "user-1", suspended.ID, entity.MemberRoleStudent, base.AddDate(0, 1, 0))

	m, err := f.authorizer.DefaultMembership(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, active.ID, m.TenantID)
}

func TestDefaultMembershipNone(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.authorizer.DefaultMembership(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotAMember)
}
