package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// DefaultAdminRole is the role the bootstrap seed grants every console action.
const DefaultAdminRole = "admin"

var crudActions = []string{"view", "create", "update", "delete"}

type seedDetail struct {
	alias string
	name  string
	path  string
}

// consoleDetails are the detail paths the HTTP policy table refers to.
var consoleDetails = []seedDetail{
	{alias: "users", name: "Users", path: "/users"},
	{alias: "resources", name: "Resources", path: "/resources"},
	{alias: "roles", name: "Roles", path: "/roles"},
}

// SeedService installs the minimum data needed to administer the console:
// the administration resource tree, an admin role holding every action on
// it, and an admin user in that role. Running it again changes nothing.
type SeedService struct {
	userRepo     repository.IUserRepository
	roleRepo     repository.RoleRepository
	resourceRepo repository.ResourceRepository
	permissions  *PermissionService
}

func NewSeedService(userRepo repository.IUserRepository, roleRepo repository.RoleRepository, resourceRepo repository.ResourceRepository, permissions *PermissionService) *SeedService {
	return &SeedService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		resourceRepo: resourceRepo,
		permissions:  permissions,
	}
}

func (s *SeedService) Seed(ctx context.Context, adminUsername, adminPassword string) (*models.User, error) {
	if err := s.ensureResource(ctx, "administration", "Administration"); err != nil {
		return nil, err
	}

	role, err := s.ensureRole(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.resourceRepo.ListActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	for _, d := range consoleDetails {
		if err := s.ensureDetail(ctx, "administration", d); err != nil {
			return nil, err
		}
		for _, name := range crudActions {
			actionID, err := s.ensureAction(ctx, existing, d.alias, name)
			if err != nil {
				return nil, err
			}
			if err := s.roleRepo.SetRoleActionGrant(ctx, role.ID, actionID, true); err != nil {
				return nil, fmt.Errorf("failed to grant %s on %s: %w", name, d.path, err)
			}
		}
	}

	admin, err := s.ensureAdmin(ctx, adminUsername, adminPassword)
	if err != nil {
		return nil, err
	}
	if err := s.roleRepo.AssignRoleToUser(ctx, admin.ID, role.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to assign admin role: %w", err)
	}

	s.permissions.InvalidateGrants(ctx)
	log.Printf("bootstrap seed complete: admin user %q holds role %q", admin.Username, role.Name)
	return admin, nil
}

func (s *SeedService) ensureResource(ctx context.Context, alias, name string) error {
	err := s.resourceRepo.CreateResource(ctx, &models.Resource{Alias: alias, Name: name, IsActive: true})
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("failed to create resource %s: %w", alias, err)
	}
	return nil
}

func (s *SeedService) ensureDetail(ctx context.Context, resourceAlias string, d seedDetail) error {
	err := s.resourceRepo.CreateResourceDetail(ctx, &models.ResourceDetail{
		Alias:         d.alias,
		ResourceAlias: resourceAlias,
		Name:          d.name,
		Path:          d.path,
		IsActive:      true,
	})
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("failed to create resource detail %s: %w", d.alias, err)
	}
	return nil
}

func (s *SeedService) ensureAction(ctx context.Context, existing []*models.Action, detailAlias, name string) (string, error) {
	for _, action := range existing {
		if action.ResourceDetailAlias == detailAlias && action.Name == name {
			return action.ID, nil
		}
	}
	action := &models.Action{Name: name, ResourceDetailAlias: detailAlias, IsActive: true}
	if err := s.resourceRepo.CreateAction(ctx, action); err != nil {
		return "", fmt.Errorf("failed to create action %s on %s: %w", name, detailAlias, err)
	}
	return action.ID, nil
}

func (s *SeedService) ensureRole(ctx context.Context) (*models.Role, error) {
	role, err := s.roleRepo.GetRoleByName(ctx, DefaultAdminRole)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin role: %w", err)
	}
	role = &models.Role{Name: DefaultAdminRole, Description: "Full access to the administration console", IsActive: true}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("default admin role creation failed: %w", err)
	}
	log.Println("default admin role created successfully: ", role.ID)
	return role, nil
}

func (s *SeedService) ensureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("admin password rejected: %w", err)
	}
	user = &models.User{Username: username, FullName: "Administrator", PasswordHash: hash}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("default admin user creation failed: %w", err)
	}
	log.Println("default admin user created successfully: ", user.ID)
	return user, nil
}
