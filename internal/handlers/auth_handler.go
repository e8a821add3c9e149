package handlers

import (
	"log"
	"net/http"
	"time"

	"htech-admin/internal/config"
	"htech-admin/internal/models"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

// RefreshPath is the refresh route. The refresh cookie is scoped to it so the
// credential is sent nowhere else.
const RefreshPath = "/auth/refresh"

type AuthHandler struct {
	sessionService    *services.SessionService
	jwtService        *services.JWTService
	permissionService *services.PermissionService
	cookieCfg         config.CookieConfig
}

func NewAuthHandler(sessionService *services.SessionService, jwtService *services.JWTService, permissionService *services.PermissionService, cookieCfg config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		sessionService:    sessionService,
		jwtService:        jwtService,
		permissionService: permissionService,
		cookieCfg:         cookieCfg,
	}
}

func (a *AuthHandler) RegisterRoutes(router gin.IRouter) {
	router.POST(RefreshPath, a.Refresh)

	authGr := router.Group("/auth")
	authGr.POST("/login", a.Login)
	authGr.POST("/logout", a.Logout)
	authGr.GET("/me", a.Me)
}

// Login handles user authentication
func (a *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, pair, err := a.sessionService.Login(c.Request.Context(), req.Username, req.Password, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	a.setCredentialCookies(c, pair)
	log.Printf("Successful login for user %s", user.ID)
	utils.SendSuccess(c, http.StatusOK, models.LoginResponse{
		User:             user.Profile(),
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
	})
}

// Refresh rotates the credential pair using the refresh cookie. Any failure
// clears both cookies.
func (a *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	user, pair, err := a.sessionService.Refresh(c.Request.Context(), refreshToken, clientMeta(c))
	if err != nil {
		a.clearCredentialCookies(c)
		respondError(c, err)
		return
	}

	a.setCredentialCookies(c, pair)
	utils.SendSuccess(c, http.StatusOK, models.LoginResponse{
		User:             user.Profile(),
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
	})
}

// Logout is best effort: it ends the session named by the access credential,
// even an expired one, and always clears the cookies.
func (a *AuthHandler) Logout(c *gin.Context) {
	if token := accessTokenFrom(c); token != "" {
		userID, err := a.jwtService.SubjectIgnoringExpiry(models.AccessToken, token)
		if err == nil {
			if err := a.sessionService.Logout(c.Request.Context(), userID, clientMeta(c)); err != nil {
				log.Printf("logout for user %s could not delete session: %v", userID, err)
			}
		}
	}

	a.clearCredentialCookies(c)
	utils.SendSuccess(c, http.StatusOK, gin.H{"logged_out": true})
}

// Me returns the caller's profile and effective grants.
func (a *AuthHandler) Me(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	grants, err := a.permissionService.GrantedActions(c.Request.Context(), identity.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, models.MeResponse{
		User:           identity.User.Profile(),
		GrantedActions: grants,
	})
}

func (a *AuthHandler) setCredentialCookies(c *gin.Context, pair *models.TokenPair) {
	a.writeCookie(c, AccessTokenCookie, pair.AccessToken, "/", pair.AccessExpiresAt)
	a.writeCookie(c, RefreshTokenCookie, pair.RefreshToken, RefreshPath, pair.RefreshExpiresAt)
}

func (a *AuthHandler) clearCredentialCookies(c *gin.Context) {
	a.writeCookie(c, AccessTokenCookie, "", "/", time.Time{})
	a.writeCookie(c, RefreshTokenCookie, "", RefreshPath, time.Time{})
}

// writeCookie sets an HttpOnly, SameSite=Strict cookie. A zero expiry deletes it.
func (a *AuthHandler) writeCookie(c *gin.Context, name, value, path string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   a.cookieCfg.Domain,
		HttpOnly: true,
		Secure:   a.cookieCfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if expires.IsZero() {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}
	http.SetCookie(c.Writer, cookie)
}
