package service

import (
	"context"
	"testing"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserService(t *testing.T) (*testEnv, UserService) {
	t.Helper()
	env := setupEnv(t)
	svc := NewUserService(env.userRepo, env.auditRepo, env.txManager, []byte("test-secret"))
	return env, svc
}

func TestCreateAndLogin(t *testing.T) {
	env, svc := setupUserService(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", model.RoleAdmin)

	created, err := svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "secret123",
		Role:     model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, created.Role)
	assert.True(t, created.IsActive)

	pair, user, err := svc.Login(ctx, LoginInput{Email: "jdoe@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "jdoe", user.Username)

	_, _, err = svc.Login(ctx, LoginInput{Email: "jdoe@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestCreateRejectsDuplicates(t *testing.T) {
	env, svc := setupUserService(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", model.RoleAdmin)

	_, err := svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "secret123", Role: model.RoleStaff,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "jdoe", Email: "other@example.com", Password: "secret123", Role: model.RoleStaff,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "other", Email: "jdoe@example.com", Password: "secret123", Role: model.RoleStaff,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRefreshRotatesToken(t *testing.T) {
	env, svc := setupUserService(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", model.RoleAdmin)

	_, err := svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "secret123", Role: model.RoleStaff,
	})
	require.NoError(t, err)

	pair, _, err := svc.Login(ctx, LoginInput{Email: "jdoe@example.com", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token is gone.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	env, svc := setupUserService(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", model.RoleAdmin)

	created, err := svc.Create(ctx, admin.ID, CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "secret123", Role: model.RoleStaff,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, admin.ID, uuid.MustParse(created.ID), UpdateUserInput{IsActive: &inactive})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Email: "jdoe@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}

func TestDeleteOwnAccountFails(t *testing.T) {
	env, svc := setupUserService(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", model.RoleAdmin)

	err := svc.Delete(ctx, admin.ID, admin.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}
