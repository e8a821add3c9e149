package services

import (
	"context"
	"testing"

	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoleRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	role, err := env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: " auditor "})
	require.NoError(t, err)
	assert.Equal(t, "auditor", role.Name)
	assert.True(t, role.IsActive)

	_, err = env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "auditor"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRoleMembershipDrivesGrants(t *testing.T) {
	env := newTestEnv(t, newMemoryGrantCache())
	ctx := context.Background()
	actions := usersDetail(t, env)
	alice := env.createUser(t, "alice")
	admin := env.createUser(t, "admin")

	role, err := env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	require.NoError(t, env.roles.SetRoleActionGrant(ctx, role.ID, actions["update"].ID, true))

	grants, err := env.permissions.GrantedActions(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)

	require.NoError(t, env.roles.AssignRoleToUser(ctx, role.ID, alice.ID, admin.ID))
	// Assigning twice is a no-op.
	require.NoError(t, env.roles.AssignRoleToUser(ctx, role.ID, alice.ID, admin.ID))

	roles, err := env.roles.GetUserRoles(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "editor", roles[0].Name)

	grants, err = env.permissions.GrantedActions(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"update"}, grants["users"])

	require.NoError(t, env.roles.RemoveRoleFromUser(ctx, role.ID, alice.ID))
	grants, err = env.permissions.GrantedActions(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)

	assert.ErrorIs(t, env.roles.RemoveRoleFromUser(ctx, role.ID, alice.ID), ErrNotFound)
}

func TestRoleWritesRejectUnknownTargets(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	actions := usersDetail(t, env)
	alice := env.createUser(t, "alice")
	role, err := env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.roles.AssignRoleToUser(ctx, "missing", alice.ID, ""), ErrNotFound)
	assert.ErrorIs(t, env.roles.AssignRoleToUser(ctx, role.ID, "missing", ""), ErrNotFound)
	assert.ErrorIs(t, env.roles.SetRoleActionGrant(ctx, role.ID, "missing", true), ErrNotFound)
	assert.ErrorIs(t, env.roles.SetRoleActionGrant(ctx, "missing", actions["view"].ID, true), ErrNotFound)
}
