package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

func signToken(t *testing.T, key *rsa.PrivateKey, userID string) string {
	t.Helper()
	claims := &domain.CustomClaims{
		UserID: userID,
		Role:   "agent",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewIdentityValidator(&key.PublicKey)

	t.Run("valid token with bearer prefix", func(t *testing.T) {
		claims, err := v.VerifyToken("Bearer " + signToken(t, key, "agent-1"))
		require.NoError(t, err)
		assert.Equal(t, "agent-1", claims.UserID)
	})

	t.Run("raw token without prefix", func(t *testing.T) {
		claims, err := v.VerifyToken(signToken(t, key, "agent-1"))
		require.NoError(t, err)
		assert.Equal(t, "agent-1", claims.UserID)
	})

	t.Run("foreign key rejected", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		_, err = v.VerifyToken(signToken(t, otherKey, "agent-1"))
		assert.Error(t, err)
	})

	t.Run("hs256 rejected", func(t *testing.T) {
		// Подмена алгоритма: подпись публичным ключом как HMAC-секретом
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &domain.CustomClaims{UserID: "agent-1"})
		signed, err := token.SignedString([]byte("fake-secret"))
		require.NoError(t, err)

		_, err = v.VerifyToken(signed)
		assert.Error(t, err)
	})

	t.Run("empty identity rejected", func(t *testing.T) {
		_, err := v.VerifyToken(signToken(t, key, ""))
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := v.VerifyToken("Bearer not-a-token")
		assert.Error(t, err)
	})
}
