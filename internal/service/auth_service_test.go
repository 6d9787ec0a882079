package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:         username,
		Email:            username + "@example.com",
		Password:         "s3cret-pass",
		RepeatedPassword: "s3cret-pass",
		Type:             model.TypeCustomer,
	}
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	resp, err := svc.Register(context.Background(), registerInput("newuser"))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "newuser", resp.Username)
	assert.Equal(t, "newuser@example.com", resp.Email)
	assert.NotZero(t, resp.UserID)
	assert.Equal(t, model.TypeCustomer, resp.Type)

	// The registration creates a profile mirroring the account type.
	var profile model.Profile
	require.NoError(t, db.Where("user_id = ?", resp.UserID).First(&profile).Error)
	assert.Equal(t, model.TypeCustomer, profile.Type)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	input := registerInput("newuser")
	input.RepeatedPassword = "different"

	_, err := svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	_, err := svc.Register(context.Background(), registerInput("taken"))
	require.NoError(t, err)

	input := registerInput("taken")
	input.Email = "other@example.com"
	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	_, err := svc.Register(context.Background(), registerInput("first"))
	require.NoError(t, err)

	input := registerInput("second")
	input.Email = "first@example.com"
	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	_, err := svc.Register(context.Background(), registerInput("loginuser"))
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginInput{Username: "loginuser", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "loginuser", resp.Username)
	})

	t.Run("case-insensitive username", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginInput{Username: "LoginUser", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, "loginuser", resp.Username)
	})

	// The two failure modes are indistinguishable from the outside.
	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "loginuser", Password: "wrong"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid username or password")
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "whatever"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid username or password")
	})
}
