package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emre/famlink/internal/app/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestNewOpaqueToken(t *testing.T) {
	first, err := NewOpaqueToken()
	assert.NoError(t, err)
	assert.Len(t, first, 40)
	assert.Regexp(t, `^[0-9a-f]{40}$`, first)

	second, err := NewOpaqueToken()
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestJWTService_SessionRoundTrip(t *testing.T) {
	service := NewJWTService(JWTConfig{
		SecretKey:  "test-secret",
		SessionExp: time.Hour,
		Issuer:     "famlink.test",
	})

	role := models.RoleParent
	user := &models.User{ID: 42, Username: "jane.doe", UserType: &role}

	token, err := service.GenerateSessionToken(user)
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jane.doe", claims.Username)
	assert.Equal(t, "parent", claims.RoleType)
	assert.Equal(t, "famlink.test", claims.Issuer)
}

func TestJWTService_RejectsBadTokens(t *testing.T) {
	service := NewJWTService(JWTConfig{
		SecretKey:  "test-secret",
		SessionExp: time.Hour,
		Issuer:     "famlink.test",
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(JWTConfig{
			SecretKey:  "test-secret",
			SessionExp: -time.Minute,
			Issuer:     "famlink.test",
		})
		user := &models.User{ID: 1, Username: "jane.doe"}
		token, err := expired.GenerateSessionToken(user)
		assert.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService(JWTConfig{
			SecretKey:  "different-secret",
			SessionExp: time.Hour,
			Issuer:     "famlink.test",
		})
		user := &models.User{ID: 1, Username: "jane.doe"}
		token, err := other.GenerateSessionToken(user)
		assert.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	token, err = ExtractBearerToken("abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
