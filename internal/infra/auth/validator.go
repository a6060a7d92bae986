package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// IdentityValidator проверяет RS256 токены, выпущенные router'ом.
// Публичный ключ один на платформу: slab проверяет те же токены,
// не имея закрытого ключа. Результат проверки — идентичность
// вызывающего, которую ядро сверяет с admin/oracle_authority/owner.
type IdentityValidator struct {
	publicKey *rsa.PublicKey
}

func NewIdentityValidator(pubKey *rsa.PublicKey) *IdentityValidator {
	return &IdentityValidator{publicKey: pubKey}
}

// VerifyToken реализует auth.TokenValidator.
// Принимает сырое значение заголовка Authorization.
func (v *IdentityValidator) VerifyToken(tokenStr string) (*domain.CustomClaims, error) {
	claims := &domain.CustomClaims{}

	token, err := jwt.ParseWithClaims(stripBearer(tokenStr), claims, func(token *jwt.Token) (interface{}, error) {
		// Строго RS256: HS256 с публичным ключом как секретом —
		// классический вектор подмены алгоритма
		if token.Method != jwt.SigningMethodRS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	// Токен без идентичности бесполезен: все проверки авторизации
	// в ядре сравнивают именно UserID
	if claims.UserID == "" {
		return nil, fmt.Errorf("token carries no caller identity")
	}

	return claims, nil
}

func stripBearer(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// ParseRSAPublicKey превращает PEM в ключ проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ParseRSAPrivateKey превращает PEM в ключ подписи (только router)
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key data is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
