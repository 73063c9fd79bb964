package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService(config.Default())
	user := &models.User{ID: uuid.New(), Email: "koor@kampus.ac.id", Role: models.RoleCoordinator}

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestAuthService_Rejects(t *testing.T) {
	cfg := config.Default()
	auth := NewAuthService(cfg)

	other := config.Default()
	other.JWTSecret = "another-secret"
	foreign, err := NewAuthService(other).GenerateToken(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	noUser, err := auth.GenerateToken(&models.User{})
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"no user":      noUser,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
