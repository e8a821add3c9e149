package guard

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"htech-admin/internal/models"
	"htech-admin/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	granted := models.GrantedActions{
		"users": {"create", "view"},
		"roles": {"view"},
	}

	tests := []struct {
		name    string
		granted models.GrantedActions
		policy  Policy
		wantErr error
	}{
		{name: "public", granted: nil, policy: Public()},
		{name: "authenticated only", granted: nil, policy: AuthenticatedOnly()},
		{name: "empty grants", granted: models.GrantedActions{}, policy: Require("/users", "view"), wantErr: services.ErrForbidden},
		{name: "single action", granted: granted, policy: Require("/users", "view")},
		{name: "slashes trimmed", granted: granted, policy: Require("users/", "view")},
		{name: "all actions present", granted: granted, policy: Require("/users", "view", "create")},
		{name: "one action missing", granted: granted, policy: Require("/users", "view", "delete"), wantErr: services.ErrActionMissing},
		{name: "unknown path", granted: granted, policy: Require("/news", "view"), wantErr: services.ErrNoMatchingResource},
		{name: "no prefix inheritance", granted: granted, policy: Require("/users/roles", "view"), wantErr: services.ErrNoMatchingResource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decide(tt.granted, tt.policy)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, services.ErrForbidden)
		})
	}
}

type staticGrants struct {
	grants models.GrantedActions
	err    error
	calls  int
}

func (s *staticGrants) GrantedActions(context.Context, string) (models.GrantedActions, error) {
	s.calls++
	return s.grants, s.err
}

func TestCheckSkipsLookupForOpenPolicies(t *testing.T) {
	source := &staticGrants{}
	g := New(source)

	assert.NoError(t, g.Check(context.Background(), "u", Public()))
	assert.NoError(t, g.Check(context.Background(), "u", AuthenticatedOnly()))
	assert.Zero(t, source.calls)
}

func TestCheckPropagatesLookupFailure(t *testing.T) {
	g := New(&staticGrants{err: errors.New("db down")})

	err := g.Check(context.Background(), "u", Require("/users", "view"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrForbidden)
}

func TestConsolePoliciesLookup(t *testing.T) {
	table := ConsolePolicies()

	policy, ok := table.Lookup(http.MethodDelete, "/users/:id")
	assert.True(t, ok)
	assert.Equal(t, []string{"delete"}, policy.RequiredActions)

	policy, ok = table.Lookup(http.MethodPost, "/auth/login")
	assert.True(t, ok)
	assert.True(t, policy.Public)

	_, ok = table.Lookup(http.MethodPatch, "/users/:id")
	assert.False(t, ok)
	_, ok = table.Lookup(http.MethodGet, "")
	assert.False(t, ok)
}
