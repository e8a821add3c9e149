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

// ResourceRepository manages the resource -> detail -> action graph.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource *models.Resource) error
	GetResourceByAlias(ctx context.Context, alias string) (*models.Resource, error)
	ListResources(ctx context.Context) ([]*models.Resource, error)
	// RenameResource changes a resource alias and re-points every detail that
	// referenced the old alias.
	RenameResource(ctx context.Context, oldAlias, newAlias, name string) error

	CreateResourceDetail(ctx context.Context, detail *models.ResourceDetail) error
	GetResourceDetailByAlias(ctx context.Context, alias string) (*models.ResourceDetail, error)
	ListResourceDetails(ctx context.Context) ([]*models.ResourceDetail, error)

	CreateAction(ctx context.Context, action *models.Action) error
	GetActionByID(ctx context.Context, id string) (*models.Action, error)
	ListActions(ctx context.Context) ([]*models.Action, error)
	SetActionActive(ctx context.Context, id string, active bool) error
}

type resourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) CreateResource(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	resource.CreatedAt, resource.UpdatedAt = now, now

	query := `
		INSERT INTO resources (id, alias, name, path, is_active, created_at, updated_at)
		VALUES (:id, :alias, :name, :path, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

func (r *resourceRepository) GetResourceByAlias(ctx context.Context, alias string) (*models.Resource, error) {
	var resource models.Resource
	query := `SELECT id, alias, name, path, is_active, created_at, updated_at FROM resources WHERE alias = $1`
	if err := r.db.GetContext(ctx, &resource, query, alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &resource, nil
}

func (r *resourceRepository) ListResources(ctx context.Context) ([]*models.Resource, error) {
	var resources []*models.Resource
	query := `SELECT id, alias, name, path, is_active, created_at, updated_at FROM resources ORDER BY alias`
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

func (r *resourceRepository) RenameResource(ctx context.Context, oldAlias, newAlias, name string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rename transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE resources
		SET alias = $2, name = COALESCE(NULLIF($3, ''), name), updated_at = $4
		WHERE alias = $1`, oldAlias, newAlias, name, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to rename resource: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE resource_details SET resource_alias = $2, updated_at = $3 WHERE resource_alias = $1`,
		oldAlias, newAlias, now); err != nil {
		return fmt.Errorf("failed to cascade resource alias: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resource rename: %w", err)
	}
	return nil
}

func (r *resourceRepository) CreateResourceDetail(ctx context.Context, detail *models.ResourceDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	detail.CreatedAt, detail.UpdatedAt = now, now

	query := `
		INSERT INTO resource_details (id, alias, resource_alias, name, path, is_active, created_at, updated_at)
		VALUES (:id, :alias, :resource_alias, :name, :path, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, detail); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create resource detail: %w", err)
	}
	return nil
}

func (r *resourceRepository) GetResourceDetailByAlias(ctx context.Context, alias string) (*models.ResourceDetail, error) {
	var detail models.ResourceDetail
	query := `
		SELECT id, alias, resource_alias, name, path, is_active, created_at, updated_at
		FROM resource_details WHERE alias = $1`
	if err := r.db.GetContext(ctx, &detail, query, alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resource detail: %w", err)
	}
	return &detail, nil
}

func (r *resourceRepository) ListResourceDetails(ctx context.Context) ([]*models.ResourceDetail, error) {
	var details []*models.ResourceDetail
	query := `
		SELECT id, alias, resource_alias, name, path, is_active, created_at, updated_at
		FROM resource_details ORDER BY resource_alias, alias`
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("failed to list resource details: %w", err)
	}
	return details, nil
}

func (r *resourceRepository) CreateAction(ctx context.Context, action *models.Action) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	action.CreatedAt, action.UpdatedAt = now, now

	query := `
		INSERT INTO actions (id, name, resource_detail_alias, is_active, created_at, updated_at)
		VALUES (:id, :name, :resource_detail_alias, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

func (r *resourceRepository) GetActionByID(ctx context.Context, id string) (*models.Action, error) {
	var action models.Action
	query := `SELECT id, name, resource_detail_alias, is_active, created_at, updated_at FROM actions WHERE id = $1`
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return &action, nil
}

func (r *resourceRepository) ListActions(ctx context.Context) ([]*models.Action, error) {
	var actions []*models.Action
	query := `
		SELECT id, name, resource_detail_alias, is_active, created_at, updated_at
		FROM actions ORDER BY resource_detail_alias, name`
	if err := r.db.SelectContext(ctx, &actions, query); err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return actions, nil
}

func (r *resourceRepository) SetActionActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE actions SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to toggle action: %w", err)
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
