package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	Init("test-secret")

	token, err := GenerateJWT("42", "teacher")
	require.NoError(t, err)

	claims, err := ParseAndVerify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "teacher", claims.Username)
	assert.InDelta(t, time.Now().Add(TokenTTL).Unix(), claims.ExpiresAt, 5)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	Init("one")
	token, err := GenerateJWT("1", "a")
	require.NoError(t, err)

	Init("two")
	_, err = ParseAndVerify(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	Init("test-secret")
	claims := Claims{
		UserID: "1",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
	require.NoError(t, err)

	_, err = ParseAndVerify(token)
	assert.Error(t, err)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	Init("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAndVerify(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
