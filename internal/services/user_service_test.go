package services

import (
	"context"
	"testing"

	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, models.CreateUserRequest{Username: " ", Password: testPassword})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.CreateUser(ctx, models.CreateUserRequest{Username: "alice", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	env.createUser(t, "alice")
	_, err = env.users.CreateUser(ctx, models.CreateUserRequest{Username: "alice", Password: testPassword})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestChangePasswordEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	pair := env.login(t, "alice")

	require.NoError(t, env.users.ChangePassword(ctx, user.ID, "a-brand-new-password"))

	_, err := env.auth.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = env.sessions.Login(ctx, "alice", testPassword, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.sessions.Login(ctx, "alice", "a-brand-new-password", models.ClientMeta{})
	assert.NoError(t, err)
}

func TestDeactivatedUserNoLongerExists(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.createUser(t, "admin")
	user := env.createUser(t, "alice")
	pair := env.login(t, "alice")

	assert.ErrorIs(t, env.users.DeactivateUser(ctx, admin.ID, admin.ID), ErrValidation)
	require.NoError(t, env.users.DeactivateUser(ctx, user.ID, admin.ID))

	_, err := env.auth.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = env.sessions.Refresh(ctx, pair.RefreshToken, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, env.users.DeactivateUser(ctx, "missing", admin.ID), ErrNotFound)
}

func TestGetAllUsersReturnsProfiles(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")
	env.createUser(t, "bob")

	page, err := env.users.GetAllUsers(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Users, 1)
	assert.Equal(t, 1, page.Limit)
}

func TestSetUserActionGrantRequiresExistingTargets(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")

	err := env.users.SetUserActionGrant(context.Background(), user.ID, "no-such-action", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
