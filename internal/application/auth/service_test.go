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

func newAccountService(t *testing.T, rotate bool) (*Service, *authFixture) {
	t.Helper()
	f := newAuthFixture(t)
	store := memory.NewRefreshTokenStore()
	tokens := NewTokenService(TokenConfig{
		Secret:        "test-secret",
		Issuer:        "lumen-lms",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		RotateRefresh: rotate,
	}, f.authorizer, store)
	users := memory.NewUserRepository()
	svc := NewService(users, f.tenants, f.memberships, f.authorizer, tokens, store)
	return svc, f
}

func registerInput(subdomain string, role entity.MemberRole) RegisterInput {
	return RegisterInput{
		Email:           "alice@example.com",
		Password:        "s3cret-pass",
		Name:            "Alice",
		TenantSubdomain: subdomain,
		Role:            role,
	}
}

func TestRegisterStudent(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, entity.MemberRoleStudent, result.Membership.Role)
	assert.Equal(t, entity.TeacherApprovalNotApplied, result.Membership.TeacherApproval)
	assert.NotEmpty(t, result.Pair.AccessToken)
}

func TestRegisterTeacherPendingApproval(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleTeacher))
	require.NoError(t, err)
	assert.Equal(t, entity.TeacherApprovalPending, result.Membership.TeacherApproval)
	assert.False(t, result.Membership.CanAuthorQuizzes())
}

func TestRegisterAdminRoleRejected(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)

	_, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleAdmin))
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)

	_, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterClosedTenant(t *testing.T) {
	svc, f := newAccountService(t, false)
	tenant := entity.NewTenant("acme", "acme", entity.TenantPlanBasic)
	tenant.Settings.AllowPublicRegistration = false
	require.NoError(t, f.tenants.Create(context.Background(), tenant))

	_, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterUnknownTenant(t *testing.T) {
	svc, _ := newAccountService(t, false)

	_, err := svc.Register(context.Background(), registerInput("nope", entity.MemberRoleStudent))
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestLoginWithExplicitTenant(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)
	_, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "alice@example.com", "s3cret-pass", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", result.Tenant.Subdomain)

	claims, err := svc.tokens.Validate(result.Pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Tenant.ID, claims.TenantID)
}

func TestLoginDefaultTenant(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "first", entity.TenantStatusActive)
	second := f.addTenant(t, "second", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("first", entity.MemberRoleStudent))
	require.NoError(t, err)

	// 稍后加入第二个租户，默认租户应随之变为最近加入的
	m := entity.NewMembership(result.User.ID, second.ID, entity.MemberRoleStudent)
	m.JoinedAt = result.Membership.JoinedAt.Add(time.Hour)
	require.NoError(t, f.memberships.Create(context.Background(), m))

	login, err := svc.Login(context.Background(), "alice@example.com", "s3cret-pass", "")
	require.NoError(t, err)
	assert.Equal(t, "second", login.Tenant.Subdomain)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)
	_, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong", "acme")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := newAccountService(t, false)

	// 未注册邮箱与密码错误不可区分
	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSwitchTenant(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)
	other := f.addTenant(t, "other", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)
	f.addMembership(t, result.User.ID, other.ID, entity.MemberRoleTeacher, time.Now())

	switched, err := svc.SwitchTenant(context.Background(), result.Pair.RefreshToken, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "other", switched.Tenant.Subdomain)
	assert.Equal(t, entity.MemberRoleTeacher, switched.Membership.Role)
}

func TestSwitchTenantDenied(t *testing.T) {
	svc, f := newAccountService(t, false)
	f.addTenant(t, "acme", entity.TenantStatusActive)
	other := f.addTenant(t, "other", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)

	_, err = svc.SwitchTenant(context.Background(), result.Pair.RefreshToken, other.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, f := newAccountService(t, true)
	f.addTenant(t, "acme", entity.TenantStatusActive)

	result, err := svc.Register(context.Background(), registerInput("acme", entity.MemberRoleStudent))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Pair.RefreshToken))

	_, _, err = svc.Refresh(context.Background(), result.Pair.RefreshToken, "")
	assert.Error(t, err)
}

func TestLogoutInvalidTokenIsNoop(t *testing.T) {
	svc, _ := newAccountService(t, true)

	assert.NoError(t, svc.Logout(context.Background(), "garbage"))
}

func TestMembershipsFiltersUnusable(t *testing.T) {
	svc, f := newAccountService(t, false)
	active := f.addTenant(t, "active", entity.TenantStatusActive)
	suspended := f.addTenant(t, "suspended", entity.TenantStatusSuspended)

	result, err := svc.Register(context.Background(), registerInput("active", entity.MemberRoleStudent))
	require.NoError(t, err)
	f.addMembership(t, result.User.ID, suspended.ID, entity.MemberRoleStudent, time.Now())

	views, err := svc.Memberships(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, active.ID, views[0].Tenant.ID)
}
