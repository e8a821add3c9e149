package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// GrantCache stores computed grant maps per user. Entries are namespaced by an
// epoch that every authorization write bumps, so a write makes all earlier
// entries unreachable.
type GrantCache interface {
	Epoch(ctx context.Context) (int64, error)
	Get(ctx context.Context, epoch int64, userID string) (models.GrantedActions, bool, error)
	Set(ctx context.Context, epoch int64, userID string, grants models.GrantedActions) error
	Invalidate(ctx context.Context) error
}

type PermissionService struct {
	roleRepo repository.RoleRepository
	cache    GrantCache
}

// NewPermissionService builds the grant evaluator. cache may be nil.
func NewPermissionService(roleRepo repository.RoleRepository, cache GrantCache) *PermissionService {
	return &PermissionService{roleRepo: roleRepo, cache: cache}
}

// NormalizePath trims surrounding slashes and whitespace so "/users/",
// "users" and "/users" compare equal.
func NormalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// GrantedActions returns the effective (path -> actions) map for a user:
// direct grants plus grants of every active role, with inactive actions,
// details and resources dropped.
func (s *PermissionService) GrantedActions(ctx context.Context, userID string) (models.GrantedActions, error) {
	epoch, cacheable := s.cacheEpoch(ctx)
	if cacheable {
		grants, hit, err := s.cache.Get(ctx, epoch, userID)
		if err != nil {
			log.Printf("grant cache read failed for user %s: %v", userID, err)
		} else if hit {
			return grants, nil
		}
	}

	rows, err := s.roleRepo.GetGrantedActions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load granted actions: %w", err)
	}
	grants := buildGrantedActions(rows)

	if cacheable {
		if err := s.cache.Set(ctx, epoch, userID, grants); err != nil {
			log.Printf("grant cache write failed for user %s: %v", userID, err)
		}
	}
	return grants, nil
}

// InvalidateGrants must be called after every committed authorization write.
func (s *PermissionService) InvalidateGrants(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("failed to invalidate grant cache: %v", err)
	}
}

func (s *PermissionService) cacheEpoch(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	epoch, err := s.cache.Epoch(ctx)
	if err != nil {
		log.Printf("grant cache unavailable, reading from database: %v", err)
		return 0, false
	}
	return epoch, true
}

func buildGrantedActions(rows []models.GrantRow) models.GrantedActions {
	grants := models.GrantedActions{}
	for _, row := range rows {
		path := NormalizePath(row.Path)
		if !slices.Contains(grants[path], row.Action) {
			grants[path] = append(grants[path], row.Action)
		}
	}
	for path := range grants {
		slices.Sort(grants[path])
	}
	return grants
}
