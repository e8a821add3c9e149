package services

import (
	"context"
	"fmt"
	"strings"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// RoleService provides business logic for roles and role grants
type RoleService struct {
	roleRepo          repository.RoleRepository
	userRepo          repository.IUserRepository
	resourceRepo      repository.ResourceRepository
	permissionService *PermissionService
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo repository.RoleRepository,
	userRepo repository.IUserRepository,
	resourceRepo repository.ResourceRepository,
	permissionService *PermissionService,
) *RoleService {
	return &RoleService{
		roleRepo:          roleRepo,
		userRepo:          userRepo,
		resourceRepo:      resourceRepo,
		permissionService: permissionService,
	}
}

func (s *RoleService) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrValidation)
	}
	role := &models.Role{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		return nil, translate("create role", err)
	}
	return role, nil
}

func (s *RoleService) GetRoles(ctx context.Context) ([]*models.Role, error) {
	roles, err := s.roleRepo.GetRoles(ctx)
	if err != nil {
		return nil, translate("list roles", err)
	}
	return roles, nil
}

func (s *RoleService) GetUserRoles(ctx context.Context, userID string) ([]*models.Role, error) {
	roles, err := s.roleRepo.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, translate("get user roles", err)
	}
	return roles, nil
}

// AssignRoleToUser adds userID to the role. Assigning twice is a no-op.
func (s *RoleService) AssignRoleToUser(ctx context.Context, roleID, userID, assignedBy string) error {
	if _, err := s.roleRepo.GetRoleByID(ctx, roleID); err != nil {
		return translate("assign role", err)
	}
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return translate("assign role", err)
	}
	if err := s.roleRepo.AssignRoleToUser(ctx, userID, roleID, optional(assignedBy)); err != nil {
		return translate("assign role", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return nil
}

func (s *RoleService) RemoveRoleFromUser(ctx context.Context, roleID, userID string) error {
	if err := s.roleRepo.RemoveRoleFromUser(ctx, userID, roleID); err != nil {
		return translate("remove role", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return nil
}

// SetRoleActionGrant grants (active=true) or revokes an action for a role.
func (s *RoleService) SetRoleActionGrant(ctx context.Context, roleID, actionID string, active bool) error {
	if _, err := s.roleRepo.GetRoleByID(ctx, roleID); err != nil {
		return translate("grant role action", err)
	}
	if _, err := s.resourceRepo.GetActionByID(ctx, actionID); err != nil {
		return translate("grant role action", err)
	}
	if err := s.roleRepo.SetRoleActionGrant(ctx, roleID, actionID, active); err != nil {
		return translate("grant role action", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return nil
}
