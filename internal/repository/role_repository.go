package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"htech-admin/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RoleRepository handles roles, user-role assignments and action grants.
type RoleRepository interface {
	CreateRole(ctx context.Context, role *models.Role) error
	GetRoleByID(ctx context.Context, id string) (*models.Role, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	GetRoles(ctx context.Context) ([]*models.Role, error)

	AssignRoleToUser(ctx context.Context, userID, roleID string, assignedBy *string) error
	RemoveRoleFromUser(ctx context.Context, userID, roleID string) error
	GetUserRoles(ctx context.Context, userID string) ([]*models.Role, error)

	// SetRoleActionGrant creates or toggles the role -> action grant row.
	SetRoleActionGrant(ctx context.Context, roleID, actionID string, active bool) error
	// SetUserActionGrant creates or toggles the user -> action grant row.
	SetUserActionGrant(ctx context.Context, userID, actionID string, active bool) error

	// GetGrantedActions returns every (path, action) a user holds directly or
	// through a role. Only rows whose grant, action, detail, resource and role
	// are all active are returned.
	GetGrantedActions(ctx context.Context, userID string) ([]models.GrantRow, error)
}

// roleRepository implements RoleRepository interface
type roleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sqlx.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) CreateRole(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	query := `
		INSERT INTO roles (id, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query, role.ID, role.Name, role.Description, role.IsActive).Scan(&role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *roleRepository) GetRoleByID(ctx context.Context, id string) (*models.Role, error) {
	role := &models.Role{}
	query := `SELECT id, name, description, is_active, created_at FROM roles WHERE id = $1`

	if err := r.db.GetContext(ctx, role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role by ID: %w", err)
	}
	return role, nil
}

func (r *roleRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	query := `SELECT id, name, description, is_active, created_at FROM roles WHERE name = $1`

	if err := r.db.GetContext(ctx, role, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}
	return role, nil
}

func (r *roleRepository) GetRoles(ctx context.Context) ([]*models.Role, error) {
	var roles []*models.Role
	query := `SELECT id, name, description, is_active, created_at FROM roles ORDER BY name`
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) AssignRoleToUser(ctx context.Context, userID, roleID string, assignedBy *string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID, assignedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to assign role to user: %w", err)
	}
	return nil
}

func (r *roleRepository) RemoveRoleFromUser(ctx context.Context, userID, roleID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role from user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roleRepository) GetUserRoles(ctx context.Context, userID string) ([]*models.Role, error) {
	var roles []*models.Role
	query := `
		SELECT r.id, r.name, r.description, r.is_active, r.created_at
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name`

	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) SetRoleActionGrant(ctx context.Context, roleID, actionID string, active bool) error {
	query := `
		INSERT INTO role_actions (role_id, action_id, is_active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role_id, action_id) DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, roleID, actionID, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set role action grant: %w", err)
	}
	return nil
}

func (r *roleRepository) SetUserActionGrant(ctx context.Context, userID, actionID string, active bool) error {
	query := `
		INSERT INTO user_actions (user_id, action_id, is_active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, action_id) DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, userID, actionID, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set user action grant: %w", err)
	}
	return nil
}

const grantedActionsQuery = `
	SELECT rd.path AS path, a.name AS action
	FROM user_actions ua
	INNER JOIN actions a ON a.id = ua.action_id
	INNER JOIN resource_details rd ON rd.alias = a.resource_detail_alias
	INNER JOIN resources res ON res.alias = rd.resource_alias
	WHERE ua.user_id = $1 AND ua.is_active AND a.is_active AND rd.is_active AND res.is_active
	UNION
	SELECT rd.path AS path, a.name AS action
	FROM user_roles ur
	INNER JOIN roles ro ON ro.id = ur.role_id
	INNER JOIN role_actions ra ON ra.role_id = ro.id
	INNER JOIN actions a ON a.id = ra.action_id
	INNER JOIN resource_details rd ON rd.alias = a.resource_detail_alias
	INNER JOIN resources res ON res.alias = rd.resource_alias
	WHERE ur.user_id = $1 AND ro.is_active AND ra.is_active AND a.is_active AND rd.is_active AND res.is_active`

func (r *roleRepository) GetGrantedActions(ctx context.Context, userID string) ([]models.GrantRow, error) {
	var rows []models.GrantRow
	if err := r.db.SelectContext(ctx, &rows, grantedActionsQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to get granted actions: %w", err)
	}
	return rows, nil
}
