package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_identity_secret"

func mintToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	token := mintToken(t, Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
		UserID:         "user-1",
		DisplayName:    "Ada Lovelace",
		Avatar:         "https://cdn.example.com/a.png",
		Email:          "ada@example.com",
	}, testSecret)

	ident, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "Ada Lovelace", ident.DisplayName)
	assert.Equal(t, "https://cdn.example.com/a.png", ident.Avatar)
	assert.Equal(t, "ada@example.com", ident.Email)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token := mintToken(t, Claims{UserID: "user-1"}, "some_other_secret")

	_, err := VerifyToken(token, testSecret)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	token := mintToken(t, Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
		UserID:         "user-1",
	}, testSecret)

	_, err := VerifyToken(token, testSecret)
	assert.Error(t, err)
}

func TestVerifyTokenMissingUserID(t *testing.T) {
	token := mintToken(t, Claims{DisplayName: "Nobody"}, testSecret)

	_, err := VerifyToken(token, testSecret)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken("not-a-token", testSecret)
	assert.Error(t, err)
}
