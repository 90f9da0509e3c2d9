package utils

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, "PASSENGER", 15)
	require.NoError(t, err)

	tok, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
	assert.Equal(t, "PASSENGER", claims["role"])
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	h := HashRefreshRaw(rt.Raw)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, h, HashRefreshRaw(rt.Raw+"x"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("correct horse", 1)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
}

func TestCheckPassword(t *testing.T) {
	assert.ErrorIs(t, CheckPassword("12345"), ErrPasswordTooShort)
	assert.NoError(t, CheckPassword("123456"))
	assert.ErrorIs(t, CheckPassword(strings.Repeat("a", MaxPasswordLen+1)), ErrPasswordTooLong)
}
