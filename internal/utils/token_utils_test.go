package utils_test

import (
	"testing"
	"time"

	"github.com/anvko/shop_admin_app/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := utils.GenerateJWT("user-1", "admin", "session-1", testSecret, time.Hour, "shop-admin-app")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ParseAndValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "shop-admin-app", claims.Issuer)
}

func TestParseJWT_WrongSecretRejected(t *testing.T) {
	token, err := utils.GenerateJWT("user-1", "staff", "session-1", testSecret, time.Hour, "shop-admin-app")
	require.NoError(t, err)

	_, err = utils.ParseAndValidateJWT(token, "some-other-secret")
	assert.Error(t, err)
}

func TestParseJWT_ExpiredRejected(t *testing.T) {
	token, err := utils.GenerateJWT("user-1", "staff", "session-1", testSecret, -time.Minute, "shop-admin-app")
	require.NoError(t, err)

	_, err = utils.ParseAndValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestHashToken_DeterministicAndOpaque(t *testing.T) {
	hash := utils.HashToken("raw-token")

	assert.Equal(t, hash, utils.HashToken("raw-token"))
	assert.NotEqual(t, hash, utils.HashToken("other-token"))
	assert.Len(t, hash, 64) // hex-encoded SHA-256
	assert.NotContains(t, hash, "raw-token")
}

func TestGenerateSecureRandomString(t *testing.T) {
	a, err := utils.GenerateSecureRandomString(32)
	require.NoError(t, err)
	b, err := utils.GenerateSecureRandomString(32)
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes hex-encoded
	assert.NotEqual(t, a, b)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := utils.HashPassword("hunter2hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, utils.CheckPasswordHash("hunter2hunter2", hash))
	assert.False(t, utils.CheckPasswordHash("hunter3hunter3", hash))
}
