package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/utils"
)

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	blacklist := NewMemoryTokenBlacklist()
	auth := NewAuthService(nil, &config.Config{JWT: config.JWTConfig{AccessTokenTTL: 1}}, blacklist)

	token, err := utils.GenerateJWT(uuid.New(), "ann@example.com", false, 1)
	require.NoError(t, err)
	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))

	revoked, err := blacklist.IsRevoked(ctx, claims.TokenID())
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.Equal(t, KindUnauthorized, KindOf(auth.Logout(ctx, &utils.JWTClaims{})))
}

func TestSignupValidation(t *testing.T) {
	auth := NewAuthService(nil, &config.Config{}, NewMemoryTokenBlacklist())

	_, err := auth.Signup(context.Background(), &SignupRequest{Username: "ann", Email: "not-an-email", Password: "longenough"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = auth.Signup(context.Background(), &SignupRequest{Username: "ann", Email: "ann@example.com", Password: "short"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = auth.Login(context.Background(), &LoginRequest{Email: "ann@example.com"})
	assert.Equal(t, KindValidation, KindOf(err))
}
