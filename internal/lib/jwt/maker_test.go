package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name   string
		userID string
	}{
		{name: "uuid user id", userID: "9b2f6d3e-5c1a-4f0e-a1c2-3d4e5f6a7b8c"},
		{name: "short user id", userID: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.userID, claims.Subject)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_TokensAreUnique(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)

	first, err := maker.GenerateToken("user-1")
	require.NoError(t, err)
	second, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTMaker_DefaultTTL(t *testing.T) {
	maker := NewJWTMaker("secret", 0)

	token, err := maker.GenerateToken("user-1")
	require.NoError(t, err)
	claims, err := maker.ParseToken(token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty token", token: "", wantErr: ErrInvalidToken},
		{name: "malformed token", token: "invalid.token.here", wantErr: ErrInvalidToken},
		{name: "expired token", token: createExpiredToken(t, secretKey), wantErr: ErrExpiredToken},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t), wantErr: ErrInvalidToken},
		{name: "tampered token", token: validToken + "tampered", wantErr: ErrInvalidToken},
		{name: "unsigned token", token: createUnsignedToken(t), wantErr: ErrInvalidToken},
		{name: "token without user id", token: createTokenWithoutUserID(t, secretKey), wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewJWTMaker("first_secret_key", 15*time.Minute)
	maker2 := NewJWTMaker("different_secret_key", 15*time.Minute)

	token, err := maker1.GenerateToken("testuser")
	require.NoError(t, err)

	claims, err := maker2.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", time.Hour)
	now := time.Now()
	maker.now = func() time.Time { return now }

	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	maker.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	maker.now = func() time.Time { return now.Add(61 * time.Minute) }
	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.True(t, strings.Contains(err.Error(), "expired"))
}

func createExpiredToken(t *testing.T, secretKey string) string {
	maker := NewJWTMaker(secretKey, time.Hour)
	maker.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, err := wrongMaker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := CustomClaims{
		UserID: "testuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createTokenWithoutUserID(t *testing.T, secretKey string) string {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	require.NoError(t, err)
	return token
}
