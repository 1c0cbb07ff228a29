package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// Token type discriminators. Agent tokens embed the resolved permission
// map; user tokens carry none and are resolved by a database lookup.
const (
	TokenTypeAgent = "agent"
	TokenTypeUser  = "user"
)

// DefaultTokenDuration is the fixed lifetime of issued credentials.
const DefaultTokenDuration = 24 * time.Hour

type Claims struct {
	AgentID     int64                `json:"agent_id"`
	Username    string               `json:"username"`
	Email       string               `json:"email"`
	FullName    string               `json:"full_name"`
	TokenType   string               `json:"token_type"`
	Permissions models.PermissionSet `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

func NewTokenManager(secretKey string, tokenDuration time.Duration) *TokenManager {
	if tokenDuration <= 0 {
		tokenDuration = DefaultTokenDuration
	}
	return &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// TokenDuration returns the configured token lifetime.
func (m *TokenManager) TokenDuration() time.Duration {
	return m.tokenDuration
}

// GenerateAgentToken mints a signed agent credential embedding the
// resolved permission map. Signing fails only on a misconfigured secret.
func (m *TokenManager) GenerateAgentToken(agent *models.Agent, permissions models.PermissionSet) (string, error) {
	claims := Claims{
		AgentID:     agent.ID,
		Username:    agent.Username,
		Email:       agent.Email,
		FullName:    agent.FullName,
		TokenType:   TokenTypeAgent,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "gocrm",
			Subject:   agent.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// GenerateUserToken mints a credential for the legacy generic admin-user
// login type. It carries no permission map.
func (m *TokenManager) GenerateUserToken(userID int64, username, email string) (string, error) {
	claims := Claims{
		AgentID:   userID,
		Username:  username,
		Email:     email,
		TokenType: TokenTypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "gocrm",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken verifies signature and expiry and returns the decoded
// claims. Tokens without an exp claim are rejected outright. The caller
// is responsible for checking TokenType.
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
