package handlers

import (
	"net/http"

	"htech-admin/internal/models"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

// PermissionHandler manages the resource -> detail -> action graph that
// grants point at.
type PermissionHandler struct {
	resourceService *services.ResourceService
}

func NewPermissionHandler(resourceService *services.ResourceService) *PermissionHandler {
	return &PermissionHandler{
		resourceService: resourceService,
	}
}

func (p *PermissionHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/resources", p.GetResourceTree)
	router.POST("/resources", p.CreateResource)
	router.PUT("/resources/:alias", p.RenameResource)
	router.POST("/resources/:alias/details", p.CreateResourceDetail)
	router.POST("/resource-details/:alias/actions", p.CreateAction)
	router.PUT("/actions/:id/active", p.SetActionActive)
}

func (p *PermissionHandler) GetResourceTree(c *gin.Context) {
	tree, err := p.resourceService.GetResourceTree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, tree)
}

func (p *PermissionHandler) CreateResource(c *gin.Context) {
	var req models.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resource, err := p.resourceService.CreateResource(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, resource)
}

func (p *PermissionHandler) RenameResource(c *gin.Context) {
	var req models.RenameResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resource, err := p.resourceService.RenameResource(c.Request.Context(), c.Param("alias"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, resource)
}

func (p *PermissionHandler) CreateResourceDetail(c *gin.Context) {
	var req models.CreateResourceDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	detail, err := p.resourceService.CreateResourceDetail(c.Request.Context(), c.Param("alias"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, detail)
}

func (p *PermissionHandler) CreateAction(c *gin.Context) {
	var req models.CreateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	action, err := p.resourceService.CreateAction(c.Request.Context(), c.Param("alias"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, action)
}

func (p *PermissionHandler) SetActionActive(c *gin.Context) {
	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	action, err := p.resourceService.SetActionActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, action)
}
