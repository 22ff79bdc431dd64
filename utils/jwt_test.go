package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("secret", 42, "alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", 1, "bob", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("secret", 1, "bob", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseJWT_Empty(t *testing.T) {
	_, err := ParseJWT("secret", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWT_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: 1, Username: "mallory", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
