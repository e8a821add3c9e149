package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

type IUserService interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetAllUsers(ctx context.Context, limit, offset int) (*models.PaginatedUsersResponse, error)
	ChangePassword(ctx context.Context, userID, password string) error
	DeactivateUser(ctx context.Context, userID, actorID string) error
	SetUserActionGrant(ctx context.Context, userID, actionID string, active bool) error
}

type UserService struct {
	userRepo          repository.IUserRepository
	sessionRepo       repository.SessionRepository
	roleRepo          repository.RoleRepository
	resourceRepo      repository.ResourceRepository
	permissionService *PermissionService
}

func NewUserService(
	userRepo repository.IUserRepository,
	sessionRepo repository.SessionRepository,
	roleRepo repository.RoleRepository,
	resourceRepo repository.ResourceRepository,
	permissionService *PermissionService,
) IUserService {
	return &UserService{
		userRepo:          userRepo,
		sessionRepo:       sessionRepo,
		roleRepo:          roleRepo,
		resourceRepo:      resourceRepo,
		permissionService: permissionService,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, translate("create user", err)
	}
	log.Printf("user %s created (%s)", user.ID, user.Username)
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate("get user", err)
	}
	return user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context, limit, offset int) (*models.PaginatedUsersResponse, error) {
	users, err := s.userRepo.GetAllUsers(ctx, limit, offset)
	if err != nil {
		return nil, translate("list users", err)
	}
	total, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, translate("count users", err)
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Profile())
	}
	return &models.PaginatedUsersResponse{
		Users:  profiles,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// ChangePassword sets a new password and drops the user's session so every
// client must log in again.
func (s *UserService) ChangePassword(ctx context.Context, userID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return translate("change password", err)
	}
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke session after password change: %w", err)
	}
	return nil
}

// DeactivateUser is the soft delete. The user's session is dropped and the
// authenticator treats the account as gone from then on.
func (s *UserService) DeactivateUser(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return fmt.Errorf("%w: users cannot deactivate themselves", ErrValidation)
	}
	if err := s.userRepo.UpdateStatus(ctx, userID, models.UserStatusDeactivated); err != nil {
		return translate("deactivate user", err)
	}
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke session after deactivation: %w", err)
	}
	log.Printf("user %s deactivated by %s", userID, actorID)
	return nil
}

func (s *UserService) SetUserActionGrant(ctx context.Context, userID, actionID string, active bool) error {
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return translate("grant user action", err)
	}
	if _, err := s.resourceRepo.GetActionByID(ctx, actionID); err != nil {
		return translate("grant user action", err)
	}
	if err := s.roleRepo.SetUserActionGrant(ctx, userID, actionID, active); err != nil {
		return translate("grant user action", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return nil
}
