package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/config"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-chars-long!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "study-visits-api",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	mgr := newTestManager()
	userID := uuid.New()

	pair, err := mgr.GenerateTokenPair(&domain.Claims{
		UserID: userID,
		Email:  "coordinator@example.org",
		Role:   domain.RoleCoordinator,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)

	claims, err := mgr.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "coordinator@example.org", claims.Email)
	assert.Equal(t, domain.RoleCoordinator, claims.Role)

	claims, err = mgr.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	mgr := newTestManager()

	pair, err := mgr.GenerateTokenPair(&domain.Claims{
		UserID: uuid.New(),
		Email:  "nurse@example.org",
		Role:   domain.RoleNurse,
	})
	require.NoError(t, err)

	_, err = mgr.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = mgr.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	mgr := newTestManager()

	pair, err := mgr.GenerateTokenPair(&domain.Claims{
		UserID: uuid.New(),
		Email:  "doctor@example.org",
		Role:   domain.RoleDoctor,
	})
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{
		Secret:          "a-completely-different-signing-key!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "study-visits-api",
	})

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	mgr := newTestManager()

	pair, err := mgr.GenerateTokenPair(&domain.Claims{
		UserID: uuid.New(),
		Email:  "doctor@example.org",
		Role:   domain.RoleDoctor,
	})
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-chars-long!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "someone-else",
	})

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-chars-long!",
		AccessTokenTTL:  -1 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "study-visits-api",
	})

	pair, err := mgr.GenerateTokenPair(&domain.Claims{
		UserID: uuid.New(),
		Email:  "nurse@example.org",
		Role:   domain.RoleNurse,
	})
	require.NoError(t, err)

	_, err = mgr.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsGarbage(t *testing.T) {
	mgr := newTestManager()

	_, err := mgr.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
