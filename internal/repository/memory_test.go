package repository

import (
	"context"
	"testing"

	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grantFixture struct {
	store  *MemoryStore
	userID string
	roleID string
	view   *models.Action
	create *models.Action
}

func newGrantFixture(t *testing.T) *grantFixture {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	user := &models.User{Username: "alice"}
	require.NoError(t, store.Users.CreateUser(ctx, user))

	require.NoError(t, store.Resources.CreateResource(ctx, &models.Resource{Alias: "admin", Name: "Admin", IsActive: true}))
	require.NoError(t, store.Resources.CreateResourceDetail(ctx, &models.ResourceDetail{
		Alias: "users", ResourceAlias: "admin", Name: "Users", Path: "/users", IsActive: true,
	}))
	view := &models.Action{Name: "view", ResourceDetailAlias: "users", IsActive: true}
	create := &models.Action{Name: "create", ResourceDetailAlias: "users", IsActive: true}
	require.NoError(t, store.Resources.CreateAction(ctx, view))
	require.NoError(t, store.Resources.CreateAction(ctx, create))

	role := &models.Role{Name: "operator", IsActive: true}
	require.NoError(t, store.Roles.CreateRole(ctx, role))
	require.NoError(t, store.Roles.AssignRoleToUser(ctx, user.ID, role.ID, nil))

	return &grantFixture{store: store, userID: user.ID, roleID: role.ID, view: view, create: create}
}

func TestMemoryGrantedActionsMergesDirectAndRole(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Roles.SetRoleActionGrant(ctx, f.roleID, f.view.ID, true))
	require.NoError(t, f.store.Roles.SetUserActionGrant(ctx, f.userID, f.view.ID, true))
	require.NoError(t, f.store.Roles.SetUserActionGrant(ctx, f.userID, f.create.ID, true))

	rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.GrantRow{
		{Path: "/users", Action: "view"},
		{Path: "/users", Action: "create"},
	}, rows)
}

func TestMemoryGrantedActionsHonoursActiveFlags(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive grant", func(t *testing.T) {
		f := newGrantFixture(t)
		require.NoError(t, f.store.Roles.SetRoleActionGrant(ctx, f.roleID, f.view.ID, false))
		rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("inactive action", func(t *testing.T) {
		f := newGrantFixture(t)
		require.NoError(t, f.store.Roles.SetRoleActionGrant(ctx, f.roleID, f.view.ID, true))
		require.NoError(t, f.store.Resources.SetActionActive(ctx, f.view.ID, false))
		rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("inactive role", func(t *testing.T) {
		f := newGrantFixture(t)
		inactive := &models.Role{Name: "retired", IsActive: false}
		require.NoError(t, f.store.Roles.CreateRole(ctx, inactive))
		require.NoError(t, f.store.Roles.AssignRoleToUser(ctx, f.userID, inactive.ID, nil))
		require.NoError(t, f.store.Roles.SetRoleActionGrant(ctx, inactive.ID, f.create.ID, true))
		rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMemoryRenameResourceKeepsGrantsReachable(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Roles.SetRoleActionGrant(ctx, f.roleID, f.view.ID, true))

	require.NoError(t, f.store.Resources.RenameResource(ctx, "admin", "console", "Console"))

	detail, err := f.store.Resources.GetResourceDetailByAlias(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "console", detail.ResourceAlias)

	rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []models.GrantRow{{Path: "/users", Action: "view"}}, rows)

	_, err = f.store.Resources.GetResourceByAlias(ctx, "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySessionReplace(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryStore().Sessions

	require.NoError(t, sessions.Upsert(ctx, &models.UserSession{UserID: "u", RefreshTokenHash: "one"}))
	first, err := sessions.GetByUserID(ctx, "u")
	require.NoError(t, err)

	require.NoError(t, sessions.Replace(ctx, "u", "one", &models.UserSession{RefreshTokenHash: "two"}))
	assert.ErrorIs(t, sessions.Replace(ctx, "u", "one", &models.UserSession{RefreshTokenHash: "three"}), ErrSessionConflict)

	current, err := sessions.GetByUserID(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "two", current.RefreshTokenHash)
	assert.Equal(t, first.ID, current.ID)

	require.NoError(t, sessions.Delete(ctx, "u"))
	assert.ErrorIs(t, sessions.Replace(ctx, "u", "two", &models.UserSession{}), ErrNotFound)
}

func TestMemoryUsernameIsUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users

	require.NoError(t, users.CreateUser(ctx, &models.User{Username: "bob"}))
	assert.ErrorIs(t, users.CreateUser(ctx, &models.User{Username: "bob"}), ErrConflict)
}

func TestMemoryGrantRevokeKeepsRow(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	roles := f.store.Roles.(*memoryRoleRepository)

	require.NoError(t, f.store.Roles.SetUserActionGrant(ctx, f.userID, f.view.ID, true))
	require.NoError(t, f.store.Roles.SetUserActionGrant(ctx, f.userID, f.view.ID, false))

	grant, ok := roles.t.userActions[f.userID][f.view.ID]
	require.True(t, ok)
	assert.Equal(t, f.userID, grant.SubjectID)
	assert.Equal(t, f.view.ID, grant.ActionID)
	assert.False(t, grant.IsActive)
	assert.False(t, grant.UpdatedAt.IsZero())

	rows, err := f.store.Roles.GetGrantedActions(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, f.store.Roles.SetUserActionGrant(ctx, f.userID, f.view.ID, true))
	rows, err = f.store.Roles.GetGrantedActions(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []models.GrantRow{{Path: "/users", Action: "view"}}, rows)
}
