package services

import (
	"context"
	"fmt"
	"strings"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// ResourceService maintains the resource -> detail -> action graph.
type ResourceService struct {
	resourceRepo      repository.ResourceRepository
	permissionService *PermissionService
}

func NewResourceService(resourceRepo repository.ResourceRepository, permissionService *PermissionService) *ResourceService {
	return &ResourceService{
		resourceRepo:      resourceRepo,
		permissionService: permissionService,
	}
}

// GetResourceTree returns every resource with its details and their actions,
// inactive entries included, for the console's management screens.
func (s *ResourceService) GetResourceTree(ctx context.Context) ([]models.ResourceTree, error) {
	resources, err := s.resourceRepo.ListResources(ctx)
	if err != nil {
		return nil, translate("list resources", err)
	}
	details, err := s.resourceRepo.ListResourceDetails(ctx)
	if err != nil {
		return nil, translate("list resource details", err)
	}
	actions, err := s.resourceRepo.ListActions(ctx)
	if err != nil {
		return nil, translate("list actions", err)
	}

	actionsByDetail := map[string][]models.Action{}
	for _, action := range actions {
		actionsByDetail[action.ResourceDetailAlias] = append(actionsByDetail[action.ResourceDetailAlias], *action)
	}
	detailsByResource := map[string][]models.ResourceDetailTree{}
	for _, detail := range details {
		node := models.ResourceDetailTree{ResourceDetail: *detail, Actions: actionsByDetail[detail.Alias]}
		if node.Actions == nil {
			node.Actions = []models.Action{}
		}
		detailsByResource[detail.ResourceAlias] = append(detailsByResource[detail.ResourceAlias], node)
	}

	tree := make([]models.ResourceTree, 0, len(resources))
	for _, resource := range resources {
		node := models.ResourceTree{Resource: *resource, Details: detailsByResource[resource.Alias]}
		if node.Details == nil {
			node.Details = []models.ResourceDetailTree{}
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func (s *ResourceService) CreateResource(ctx context.Context, req models.CreateResourceRequest) (*models.Resource, error) {
	alias := strings.TrimSpace(req.Alias)
	if alias == "" {
		return nil, fmt.Errorf("%w: alias is required", ErrValidation)
	}
	resource := &models.Resource{
		Alias:    alias,
		Name:     strings.TrimSpace(req.Name),
		Path:     req.Path,
		IsActive: true,
	}
	if err := s.resourceRepo.CreateResource(ctx, resource); err != nil {
		return nil, translate("create resource", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return resource, nil
}

// RenameResource changes the alias and re-points every child detail in the
// same transaction.
func (s *ResourceService) RenameResource(ctx context.Context, alias string, req models.RenameResourceRequest) (*models.Resource, error) {
	newAlias := strings.TrimSpace(req.Alias)
	if newAlias == "" {
		return nil, fmt.Errorf("%w: alias is required", ErrValidation)
	}
	if err := s.resourceRepo.RenameResource(ctx, alias, newAlias, strings.TrimSpace(req.Name)); err != nil {
		return nil, translate("rename resource", err)
	}
	s.permissionService.InvalidateGrants(ctx)

	resource, err := s.resourceRepo.GetResourceByAlias(ctx, newAlias)
	if err != nil {
		return nil, translate("rename resource", err)
	}
	return resource, nil
}

func (s *ResourceService) CreateResourceDetail(ctx context.Context, resourceAlias string, req models.CreateResourceDetailRequest) (*models.ResourceDetail, error) {
	if _, err := s.resourceRepo.GetResourceByAlias(ctx, resourceAlias); err != nil {
		return nil, translate("create resource detail", err)
	}
	path := NormalizePath(req.Path)
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrValidation)
	}
	detail := &models.ResourceDetail{
		Alias:         strings.TrimSpace(req.Alias),
		ResourceAlias: resourceAlias,
		Name:          strings.TrimSpace(req.Name),
		Path:          "/" + path,
		IsActive:      true,
	}
	if err := s.resourceRepo.CreateResourceDetail(ctx, detail); err != nil {
		return nil, translate("create resource detail", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return detail, nil
}

func (s *ResourceService) CreateAction(ctx context.Context, detailAlias string, req models.CreateActionRequest) (*models.Action, error) {
	if _, err := s.resourceRepo.GetResourceDetailByAlias(ctx, detailAlias); err != nil {
		return nil, translate("create action", err)
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: action name is required", ErrValidation)
	}
	action := &models.Action{
		Name:                name,
		ResourceDetailAlias: detailAlias,
		IsActive:            true,
	}
	if err := s.resourceRepo.CreateAction(ctx, action); err != nil {
		return nil, translate("create action", err)
	}
	s.permissionService.InvalidateGrants(ctx)
	return action, nil
}

// SetActionActive toggles an action. Inactive actions are never granted,
// whatever grant rows reference them.
func (s *ResourceService) SetActionActive(ctx context.Context, actionID string, active bool) (*models.Action, error) {
	if err := s.resourceRepo.SetActionActive(ctx, actionID, active); err != nil {
		return nil, translate("toggle action", err)
	}
	s.permissionService.InvalidateGrants(ctx)

	action, err := s.resourceRepo.GetActionByID(ctx, actionID)
	if err != nil {
		return nil, translate("toggle action", err)
	}
	return action, nil
}
