// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lectio/internal/platform/sec"
)

const testSecret = "an-adequately-long-test-secret"

/*
TestTokenService_RoundTrip verifies that a generated token verifies back to the same identity.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "lectio")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("reader", sec.RoleMember, time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reader", claims.Username)
	assert.Equal(t, sec.RoleMember, claims.UserRole())
}

/*
TestTokenService_Rejects covers expired, foreign and malformed tokens.
*/
func TestTokenService_Rejects(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "lectio")
	require.NoError(t, err)

	other, err := sec.NewTokenService("a-completely-different-secret", "lectio")
	require.NoError(t, err)

	expired, err := service.GenerateAccessToken("reader", sec.RoleMember, -time.Minute)
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken("reader", sec.RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong_secret", foreign},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			assert.Error(t, err)
		})
	}
}

/*
TestNewTokenService_ShortSecret ensures toy secrets are refused at startup.
*/
func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("short", "lectio")
	assert.Error(t, err)
}

/*
TestPasswordHash verifies bcrypt hashing and comparison.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("correct horse", "not-a-hash"))

	_, err = sec.HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, sec.ErrPasswordTooLong)
}

/*
TestUserRole_Hierarchy checks level mapping and role comparison.
*/
func TestUserRole_Hierarchy(t *testing.T) {
	assert.Equal(t, sec.RoleAdmin, sec.RoleFromLevel(sec.LevelAdmin))
	assert.Equal(t, sec.RoleMember, sec.RoleFromLevel(sec.LevelMember))
	assert.Equal(t, sec.RoleMember, sec.RoleFromLevel(7))

	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleMember))
	assert.False(t, sec.RoleMember.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("").AtLeast(sec.RoleMember))
}
