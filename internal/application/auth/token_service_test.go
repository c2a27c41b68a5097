package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/domain/entity"
	"lumen-lms-api/internal/infrastructure/persistence/memory"
	"lumen-lms-api/pkg/utils"
)

func newTokenService(f *authFixture, rotate bool) *TokenService {
	return NewTokenService(TokenConfig{
		Secret:        "test-secret",
		Issuer:        "lumen-lms",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		RotateRefresh: rotate,
	}, f.authorizer, memory.NewRefreshTokenStore())
}

func issueTestPair(t *testing.T, f *authFixture, svc *TokenService) (*utils.TokenPair, *entity.Tenant) {
	t.Helper()
	tenant := f.addTenant(t, "acme", entity.TenantStatusActive)
	membership := f.addMembership(t, "user-1", tenant.ID, entity.MemberRoleStudent, time.Now())
	user := &entity.User{ID: "user-1", Email: "u@example.com"}

	pair, err := svc.Issue(context.Background(), user, tenant, membership)
	require.NoError(t, err)
	return pair, tenant
}

func TestIssueAndValidate(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, tenant := issueTestPair(t, f, svc)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, "acme", claims.TenantSubdomain)
	assert.Equal(t, "student", claims.Role)
}

func TestValidateRejectsRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, _ := issueTestPair(t, f, svc)

	// RefreshToken 不能当 AccessToken 用
	_, err := svc.Validate(pair.RefreshToken)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestIssueSuspendedTenant(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	tenant := f.addTenant(t, "acme", entity.TenantStatusSuspended)
	membership := f.addMembership(t, "user-1", tenant.ID, entity.MemberRoleStudent, time.Now())

	_, err := svc.Issue(context.Background(), &entity.User{ID: "user-1"}, tenant, membership)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestRefreshSameTenant(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, tenant := issueTestPair(t, f, svc)

	newPair, membership, err := svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, membership.TenantID)

	claims, err := svc.Validate(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, claims.TenantID)
}

func TestRefreshSwitchesTenant(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, _ := issueTestPair(t, f, svc)

	other := f.addTenant(t, "other", entity.TenantStatusActive)
	f.addMembership(t, "user-1", other.ID, entity.MemberRoleTeacher, time.Now())

	newPair, membership, err := svc.RefreshWithTenant(context.Background(), pair.RefreshToken, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, membership.TenantID)

	claims, err := svc.Validate(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, other.ID, claims.TenantID)
	assert.Equal(t, "teacher", claims.Role)
}

func TestRefreshSwitchDeniedForNonMember(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, _ := issueTestPair(t, f, svc)

	other := f.addTenant(t, "other", entity.TenantStatusActive)

	_, _, err := svc.RefreshWithTenant(context.Background(), pair.RefreshToken, other.ID)
	assert.ErrorIs(t, err, ErrNotAMember)

	// 切换被拒不消耗原 RefreshToken
	_, _, err = svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	assert.NoError(t, err)
}

func TestRefreshDeniedAfterMembershipRevoked(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, tenant := issueTestPair(t, f, svc)

	m, err := f.memberships.GetByUserAndTenant(context.Background(), "user-1", tenant.ID)
	require.NoError(t, err)
	require.NoError(t, f.memberships.Revoke(context.Background(), m.ID))

	// 即使 RefreshToken 本身有效，刷新也要重新过成员关系校验
	_, _, err = svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, _ := issueTestPair(t, f, svc)

	_, _, err := svc.RefreshWithTenant(context.Background(), pair.AccessToken, "")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestRefreshRotationRejectsReplay(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, true)
	pair, _ := issueTestPair(t, f, svc)

	_, _, err := svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	require.NoError(t, err)

	// 轮换后旧 RefreshToken 重放被拒
	_, _, err = svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestRefreshWithoutRotationAllowsReuse(t *testing.T) {
	f := newAuthFixture(t)
	svc := newTokenService(f, false)
	pair, _ := issueTestPair(t, f, svc)

	_, _, err := svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	require.NoError(t, err)

	_, _, err = svc.RefreshWithTenant(context.Background(), pair.RefreshToken, "")
	assert.NoError(t, err)
}
