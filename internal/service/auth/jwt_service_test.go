package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/natours-api/internal/config"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	userID := uuid.New()

	svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	// Compare Unix timestamps to avoid timezone issues
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	other, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each token carries a fresh jti")
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	wrongSecret := "wrong-secret-that-is-long-enough-for-testing"
	userID := uuid.New()

	sign := func(method jwt.SigningMethod, claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name      string
		setupFunc func() (JWTService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := svc.GenerateToken(context.Background(), userID)
				return svc, token
			},
		},
		{
			name: "within clock skew after expiry",
			setupFunc: func() (JWTService, string) {
				gen := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := gen.GenerateToken(context.Background(), userID)
				val := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime.Add(tokenLifetime+time.Minute)))
				return val, token
			},
		},
		{
			name: "expired token",
			setupFunc: func() (JWTService, string) {
				gen := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := gen.GenerateToken(context.Background(), userID)
				val := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime.Add(tokenLifetime+time.Hour)))
				return val, token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "issued in the future",
			setupFunc: func() (JWTService, string) {
				gen := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime.Add(30*time.Minute)))
				token, _ := gen.GenerateToken(context.Background(), userID)
				val := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return val, token
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			setupFunc: func() (JWTService, string) {
				gen := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := gen.GenerateToken(context.Background(), userID)
				val := newHMACJWTService(wrongSecret, tokenLifetime, fixedClock(fixedTime))
				return val, token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "unexpected signing method",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return svc, sign(jwt.SigningMethodHS512, jwt.RegisteredClaims{
					Subject:   userID.String(),
					IssuedAt:  jwt.NewNumericDate(fixedTime),
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(tokenLifetime)),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing expiry",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return svc, sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					Subject:  userID.String(),
					IssuedAt: jwt.NewNumericDate(fixedTime),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "subject is not a user id",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return svc, sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					Subject:   "someone",
					IssuedAt:  jwt.NewNumericDate(fixedTime),
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(tokenLifetime)),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return svc, "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setupFunc()
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}
