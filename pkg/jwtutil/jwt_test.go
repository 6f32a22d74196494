package jwtutil

import (
	"testing"
	"time"

	"property-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := GenerateToken("u-1", "a@example.com", "Ada", "Lovelace", []string{"manager"})
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.HasRole("admin", "manager"))
	assert.False(t, claims.HasRole("admin"))
}

func TestValidateRejectsForeignKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "one", ExpirationHours: 1})
	token, err := GenerateToken("u-1", "a@example.com", "", "", nil)
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "two", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})

	claims := &UserClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestUninitialized(t *testing.T) {
	jwtConfig = nil
	_, err := GenerateToken("u", "e", "", "", nil)
	assert.Error(t, err)
	_, err = ValidateToken("x.y.z")
	assert.Error(t, err)
}
