package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims — полезная нагрузка RS256 токена.
// Subject (UserID) и есть идентичность вызывающего: именно с ней
// сверяются admin / oracle_authority / user внутри операций ядра.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // "admin", "oracle", "agent"
	jwt.RegisteredClaims
}

// Secure Token Issuing
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

// Operator — учетная запись вызывающей стороны (админ, оракул, агент).
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Никогда не отдаем наружу
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
