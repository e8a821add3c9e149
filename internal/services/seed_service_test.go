package services

import (
	"context"
	"testing"

	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotentAndGrantsConsole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	admin, err := env.seed.Seed(ctx, "admin", testPassword)
	require.NoError(t, err)
	again, err := env.seed.Seed(ctx, "admin", testPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	actions, err := env.store.Resources.ListActions(ctx)
	require.NoError(t, err)
	assert.Len(t, actions, len(consoleDetails)*len(crudActions))

	grants, err := env.permissions.GrantedActions(ctx, admin.ID)
	require.NoError(t, err)
	for _, d := range consoleDetails {
		assert.Equal(t, []string{"create", "delete", "update", "view"}, grants[NormalizePath(d.path)], d.path)
	}

	_, _, err = env.sessions.Login(ctx, "admin", testPassword, models.ClientMeta{})
	assert.NoError(t, err)
}
