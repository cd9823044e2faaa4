package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/config"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/mosesotieno/clinical-study/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthService(t *testing.T) (*AuthService, *MockUserRepository) {
	t.Helper()

	userRepo := new(MockUserRepository)
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-chars-long!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "study-visits-api",
	})

	svc := NewAuthService(userRepo, jwtManager, newTestAuditService(), zap.NewNop())
	return svc, userRepo
}

func testUser(t *testing.T, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return &domain.User{
		ID:           uuid.New(),
		Email:        "nurse@example.org",
		PasswordHash: string(hash),
		FirstName:    "Grace",
		LastName:     "Otieno",
		Role:         domain.RoleNurse,
		IsActive:     true,
	}
}

func TestLogin(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLoginAttempt", mock.Anything, user.ID, true).Return(nil)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLoginAttempt", mock.Anything, user.ID, false).Return(nil)

	_, err := svc.Login(context.Background(), user.Email, "wrong password here", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	userRepo.AssertCalled(t, "UpdateLoginAttempt", mock.Anything, user.ID, false)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, userRepo := setupAuthService(t)

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.org").Return(nil, ErrInvalidCredentials)

	_, err := svc.Login(context.Background(), "ghost@example.org", "whatever password", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockedAccount(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")
	until := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &until

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	assert.ErrorIs(t, err, ErrAccountLocked)
	userRepo.AssertNotCalled(t, "UpdateLoginAttempt", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")
	user.IsActive = false

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshToken(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLoginAttempt", mock.Anything, user.ID, true).Return(nil)
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLoginAttempt", mock.Anything, user.ID, true).Return(nil)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenDeactivatedUser(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLoginAttempt", mock.Anything, user.ID, true).Return(nil)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse battery staple", "10.0.0.1")
	require.NoError(t, err)

	deactivated := *user
	deactivated.IsActive = false
	userRepo.On("GetByID", mock.Anything, user.ID).Return(&deactivated, nil)

	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil)

	err := svc.ChangePassword(context.Background(), user.ID, "correct horse battery staple", "a new long password")
	require.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "not the password", "a new long password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordTooShort(t *testing.T) {
	svc, userRepo := setupAuthService(t)
	user := testUser(t, "correct horse battery staple")

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "correct horse battery staple", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 12 characters")
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}
