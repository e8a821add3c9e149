package handlers

import (
	"net/http"

	"htech-admin/internal/models"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.IUserService
}

func NewUserHandler(userService services.IUserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	userGr := router.Group("/users")
	userGr.GET("", h.GetAllUsers)
	userGr.GET("/:id", h.GetUser)
	userGr.POST("", h.CreateUser)
	userGr.PUT("/:id/password", h.ChangePassword)
	userGr.DELETE("/:id", h.DeactivateUser)
	userGr.PUT("/:id/actions/:actionId", h.SetUserAction)
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	limit, offset := utils.ParsePaginationParams(c)

	page, err := h.userService.GetAllUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, page)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, user.Profile())
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, user.Profile())
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"password_changed": true})
}

// DeactivateUser is the DELETE endpoint. Users are never hard-deleted.
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	identity, _ := CurrentIdentity(c)
	actorID := ""
	if identity != nil {
		actorID = identity.User.ID
	}

	if err := h.userService.DeactivateUser(c.Request.Context(), c.Param("id"), actorID); err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"deactivated": true})
}

func (h *UserHandler) SetUserAction(c *gin.Context) {
	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := h.userService.SetUserActionGrant(c.Request.Context(), c.Param("id"), c.Param("actionId"), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"user_id": c.Param("id"), "action_id": c.Param("actionId"), "is_active": *req.IsActive})
}
