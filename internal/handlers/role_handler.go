package handlers

import (
	"net/http"

	"htech-admin/internal/models"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
	}
}

func (r *RoleHandler) RegisterRoutes(router gin.IRouter) {
	roleGr := router.Group("/roles")
	roleGr.GET("", r.GetRoles)
	roleGr.POST("", r.CreateRole)
	roleGr.POST("/:id/users", r.AssignUser)
	roleGr.DELETE("/:id/users/:userId", r.RemoveUser)
	roleGr.PUT("/:id/actions/:actionId", r.SetRoleAction)
}

func (r *RoleHandler) GetRoles(c *gin.Context) {
	roles, err := r.roleService.GetRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, roles)
}

func (r *RoleHandler) CreateRole(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	role, err := r.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, role)
}

func (r *RoleHandler) AssignUser(c *gin.Context) {
	var req models.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignedBy := ""
	if identity, ok := CurrentIdentity(c); ok {
		assignedBy = identity.User.ID
	}
	if err := r.roleService.AssignRoleToUser(c.Request.Context(), c.Param("id"), req.UserID, assignedBy); err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"role_id": c.Param("id"), "user_id": req.UserID})
}

func (r *RoleHandler) RemoveUser(c *gin.Context) {
	if err := r.roleService.RemoveRoleFromUser(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"role_id": c.Param("id"), "user_id": c.Param("userId")})
}

func (r *RoleHandler) SetRoleAction(c *gin.Context) {
	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := r.roleService.SetRoleActionGrant(c.Request.Context(), c.Param("id"), c.Param("actionId"), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"role_id": c.Param("id"), "action_id": c.Param("actionId"), "is_active": *req.IsActive})
}
