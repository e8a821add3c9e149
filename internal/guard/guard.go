package guard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"htech-admin/internal/metrics"
	"htech-admin/internal/models"
	"htech-admin/internal/services"
)

// GrantSource yields the effective grants of a user.
type GrantSource interface {
	GrantedActions(ctx context.Context, userID string) (models.GrantedActions, error)
}

type Guard struct {
	grants GrantSource
}

func New(grants GrantSource) *Guard {
	return &Guard{grants: grants}
}

// Check decides whether userID may run an operation under policy. Denials
// wrap services.ErrForbidden; other errors mean the decision could not be made.
func (g *Guard) Check(ctx context.Context, userID string, policy Policy) error {
	if policy.Public || len(policy.RequiredActions) == 0 {
		return nil
	}
	granted, err := g.grants.GrantedActions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to evaluate permissions: %w", err)
	}

	err = Decide(granted, policy)
	if err != nil {
		metrics.ObserveDecision(metrics.DecisionDeny, denyReason(err))
		log.Printf("access denied for user %s on %s %v: %v", userID, policy.ResourcePath, policy.RequiredActions, err)
		return err
	}
	metrics.ObserveDecision(metrics.DecisionAllow, "granted")
	return nil
}

// Decide is the pure permission decision. Paths match exactly after trimming
// slashes; a grant on "/users" says nothing about "/users/roles".
func Decide(granted models.GrantedActions, policy Policy) error {
	if policy.Public || len(policy.RequiredActions) == 0 {
		return nil
	}
	if len(granted) == 0 {
		return fmt.Errorf("%w: no grants", services.ErrForbidden)
	}

	actions, ok := granted[services.NormalizePath(policy.ResourcePath)]
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrNoMatchingResource, policy.ResourcePath)
	}
	for _, required := range policy.RequiredActions {
		if !slices.Contains(actions, required) {
			return fmt.Errorf("%w: %s on %s", services.ErrActionMissing, required, policy.ResourcePath)
		}
	}
	return nil
}

func denyReason(err error) string {
	switch {
	case errors.Is(err, services.ErrNoMatchingResource):
		return "no_matching_resource"
	case errors.Is(err, services.ErrActionMissing):
		return "action_missing"
	default:
		return "no_grants"
	}
}
