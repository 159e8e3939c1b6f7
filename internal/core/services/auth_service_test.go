package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/mocks"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:             7,
		Email:          "alice@example.com",
		Role:           domain.RoleOperator,
		HashedPassword: string(hash),
	}

	t.Run("valid credentials", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)

		svc := NewAuthService(userRepo)
		got, err := svc.Login(ctx, "alice@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)

		svc := NewAuthService(userRepo)
		_, err := svc.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrUserNotFound)

		svc := NewAuthService(userRepo)
		_, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("repository failure passes through", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		dbErr := errors.New("db down")
		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(nil, dbErr)

		svc := NewAuthService(userRepo)
		_, err := svc.Login(ctx, "alice@example.com", "correct horse")
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("empty fields are rejected up front", func(t *testing.T) {
		svc := NewAuthService(mocks.NewMockUserRepository())

		_, err := svc.Login(ctx, "", "secret")
		assert.ErrorIs(t, err, apperrors.ErrEmailRequired)

		_, err = svc.Login(ctx, "alice@example.com", "")
		assert.ErrorIs(t, err, apperrors.ErrPasswordRequired)
	})
}
