package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)

	_, err = svc.ValidateRefreshToken(token)
	assert.Error(t, err, "access token must not be usable as refresh token")
}

func TestJWTService_RefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	tokenID, token, err := svc.GenerateRefreshToken(userID, "ada@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err, "refresh token must not be accepted as access token")
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	other := NewJWTService("other-secret", time.Hour, time.Hour)
	userID := uuid.New()

	foreign, err := other.GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)

	expiredSvc := NewJWTService("test-secret", time.Minute, time.Hour)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: userID, TokenType: TokenTypeAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"unsigned", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateAccessToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_DefaultsAndRemainingTTL(t *testing.T) {
	svc := NewJWTService("s", 0, -1)
	assert.Equal(t, DefaultAccessTokenExpiry, svc.AccessTTL())
	assert.Equal(t, DefaultRefreshTokenExpiry, svc.RefreshTTL())

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixed.Add(90 * time.Second))}}
	assert.Equal(t, 90*time.Second, svc.RemainingTTL(claims))

	claims.ExpiresAt = jwt.NewNumericDate(fixed.Add(-time.Second))
	assert.Zero(t, svc.RemainingTTL(claims))
	assert.Zero(t, svc.RemainingTTL(nil))
}
