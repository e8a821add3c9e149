package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryGrantCache struct {
	mu      sync.Mutex
	epoch   int64
	entries map[int64]map[string]models.GrantedActions
	gets    int
	hits    int
	failing bool
}

func newMemoryGrantCache() *memoryGrantCache {
	return &memoryGrantCache{entries: map[int64]map[string]models.GrantedActions{}}
}

func (c *memoryGrantCache) Epoch(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0, errors.New("cache down")
	}
	return c.epoch, nil
}

func (c *memoryGrantCache) Get(_ context.Context, epoch int64, userID string) (models.GrantedActions, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	grants, ok := c.entries[epoch][userID]
	if ok {
		c.hits++
	}
	return grants, ok, nil
}

func (c *memoryGrantCache) Set(_ context.Context, epoch int64, userID string, grants models.GrantedActions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[epoch] == nil {
		c.entries[epoch] = map[string]models.GrantedActions{}
	}
	c.entries[epoch][userID] = grants
	return nil
}

func (c *memoryGrantCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return nil
}

// usersDetail builds /users with view/create/update actions and returns them by name.
func usersDetail(t *testing.T, env *testEnv) map[string]*models.Action {
	t.Helper()
	ctx := context.Background()
	_, err := env.resources.CreateResource(ctx, models.CreateResourceRequest{Alias: "admin", Name: "Admin"})
	require.NoError(t, err)
	_, err = env.resources.CreateResourceDetail(ctx, "admin", models.CreateResourceDetailRequest{Alias: "users", Name: "Users", Path: "users/"})
	require.NoError(t, err)

	actions := map[string]*models.Action{}
	for _, name := range []string{"view", "create", "update"} {
		action, err := env.resources.CreateAction(ctx, "users", models.CreateActionRequest{Name: name})
		require.NoError(t, err)
		actions[name] = action
	}
	return actions
}

func TestGrantedActionsUnionOfDirectAndRoleGrants(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	actions := usersDetail(t, env)

	role, err := env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "viewer"})
	require.NoError(t, err)
	require.NoError(t, env.roles.SetRoleActionGrant(ctx, role.ID, actions["view"].ID, true))
	require.NoError(t, env.roles.AssignRoleToUser(ctx, role.ID, user.ID, ""))
	require.NoError(t, env.users.SetUserActionGrant(ctx, user.ID, actions["update"].ID, true))

	grants, err := env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GrantedActions{"users": {"update", "view"}}, grants)
}

func TestGrantedActionsSeesWritesThroughCache(t *testing.T) {
	cache := newMemoryGrantCache()
	env := newTestEnv(t, cache)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	actions := usersDetail(t, env)

	require.NoError(t, env.users.SetUserActionGrant(ctx, user.ID, actions["view"].ID, true))

	grants, err := env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view"}, grants["users"])

	grants, err = env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view"}, grants["users"])
	assert.Equal(t, 1, cache.hits)

	_, err = env.resources.SetActionActive(ctx, actions["view"].ID, false)
	require.NoError(t, err)

	grants, err = env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestGrantedActionsFallsBackWhenCacheFails(t *testing.T) {
	cache := newMemoryGrantCache()
	cache.failing = true
	env := newTestEnv(t, cache)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	actions := usersDetail(t, env)
	require.NoError(t, env.users.SetUserActionGrant(ctx, user.ID, actions["create"].ID, true))

	grants, err := env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"create"}, grants["users"])
	assert.Zero(t, cache.gets)
}

func TestRevokedRoleGrantDisappears(t *testing.T) {
	env := newTestEnv(t, newMemoryGrantCache())
	ctx := context.Background()
	user := env.createUser(t, "alice")
	actions := usersDetail(t, env)

	role, err := env.roles.CreateRole(ctx, models.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	require.NoError(t, env.roles.AssignRoleToUser(ctx, role.ID, user.ID, ""))
	require.NoError(t, env.roles.SetRoleActionGrant(ctx, role.ID, actions["create"].ID, true))

	grants, err := env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"create"}, grants["users"])

	require.NoError(t, env.roles.SetRoleActionGrant(ctx, role.ID, actions["create"].ID, false))

	grants, err = env.permissions.GrantedActions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestNormalizePath(t *testing.T) {
	for _, in := range []string{"/users", "users", "/users/", " users/ "} {
		assert.Equal(t, "users", NormalizePath(in), in)
	}
	assert.Equal(t, "", NormalizePath("/"))
}
