package handlers

import (
	"net/http"

	"htech-admin/internal/config"
	"htech-admin/internal/event"
	"htech-admin/internal/guard"
	"htech-admin/internal/metrics"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	JWT           *services.JWTService
	Authenticator *services.Authenticator
	Sessions      *services.SessionService
	Permissions   *services.PermissionService
	Users         services.IUserService
	Roles         *services.RoleService
	Resources     *services.ResourceService
	Publisher     event.Publisher
}

// NewRouter wires every route behind the authenticate -> authorize pipeline.
func NewRouter(svc Services, cookieCfg config.CookieConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	middleware := NewMiddleware(svc.Authenticator, guard.New(svc.Permissions), guard.ConsolePolicies(), svc.Publisher)
	router.Use(middleware.Pipeline())

	router.GET("/healthz", func(c *gin.Context) {
		utils.SendSuccess(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	NewAuthHandler(svc.Sessions, svc.JWT, svc.Permissions, cookieCfg).RegisterRoutes(router)
	NewUserHandler(svc.Users).RegisterRoutes(router)
	NewRoleHandler(svc.Roles).RegisterRoutes(router)
	NewPermissionHandler(svc.Resources).RegisterRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		utils.SendError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return router
}
