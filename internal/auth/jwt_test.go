package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

func testAgent() *models.Agent {
	return &models.Agent{
		ID:       42,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Status:   models.AgentStatusActive,
	}
}

func TestAgentTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	perms := models.PermissionSet{
		ModuleLeads: {PermEnableDisable, PermViewAll},
		ModuleAdmin: {},
	}

	token, err := tm.GenerateAgentToken(testAgent(), perms)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.AgentID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, "jdoe@example.com", claims.Email)
	assert.Equal(t, TokenTypeAgent, claims.TokenType)
	assert.True(t, claims.Permissions.Has(ModuleLeads, PermViewAll))
	assert.False(t, claims.Permissions.Has(ModuleLeads, PermDelete))
}

func TestUserTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.GenerateUserToken(1, "admin", "admin@example.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeUser, claims.TokenType)
	assert.Empty(t, claims.Permissions)
}

func TestValidateTokenWrongKey(t *testing.T) {
	tm := NewTokenManager("secret-one", time.Hour)
	other := NewTokenManager("secret-two", time.Hour)

	token, err := tm.GenerateAgentToken(testAgent(), models.PermissionSet{})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	claims := Claims{
		AgentID:   42,
		Username:  "jdoe",
		TokenType: TokenTypeAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    "gocrm",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenMissingExpiry(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	// Correctly signed but with no exp claim at all.
	claims := Claims{
		AgentID:   42,
		Username:  "jdoe",
		TokenType: TokenTypeAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "gocrm",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManagerDefaultDuration(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)
	assert.Equal(t, DefaultTokenDuration, tm.TokenDuration())
}
