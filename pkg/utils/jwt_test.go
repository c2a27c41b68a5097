package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTenantClaims() TenantClaims {
	return TenantClaims{
		UserID:          "user-1",
		TenantID:        "tenant-1",
		TenantSubdomain: "acme",
		Role:            "teacher",
	}
}

func TestGenerateTokenPair(t *testing.T) {
	m := NewJWTManager("test-secret", "lumen-lms")

	pair, err := m.GenerateTokenPair(testTenantClaims(), 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "tenant-1", access.TenantID)
	assert.Equal(t, "acme", access.TenantSubdomain)
	assert.Equal(t, "teacher", access.Role)
	assert.Equal(t, TokenTypeAccess, access.Type)
	assert.Equal(t, "lumen-lms", access.Issuer)
	assert.NotEmpty(t, access.ID)

	refresh, err := m.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
	assert.NotEqual(t, access.ID, refresh.ID, "jti must be unique per token")
}

func TestParseTokenExpired(t *testing.T) {
	m := NewJWTManager("test-secret", "lumen-lms")

	token, _, err := m.GenerateToken(testTenantClaims(), TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", "lumen-lms")
	other := NewJWTManager("other-secret", "lumen-lms")

	token, _, err := m.GenerateToken(testTenantClaims(), TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestParseTokenGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", "lumen-lms")

	_, err := m.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
}
