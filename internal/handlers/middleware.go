package handlers

import (
	"log"
	"net/http"
	"strings"

	"htech-admin/internal/event"
	"htech-admin/internal/guard"
	"htech-admin/internal/models"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	identityKey = "identity"
)

// Middleware runs the authenticate -> authorize pipeline for every matched
// route, driven by the operation's entry in the policy table.
type Middleware struct {
	authenticator *services.Authenticator
	guard         *guard.Guard
	policies      guard.Table
	publisher     event.Publisher
}

func NewMiddleware(authenticator *services.Authenticator, g *guard.Guard, policies guard.Table, publisher event.Publisher) *Middleware {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &Middleware{
		authenticator: authenticator,
		guard:         g,
		policies:      policies,
		publisher:     publisher,
	}
}

func (m *Middleware) Pipeline() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Unmatched routes fall through to gin's 404 handling.
		if c.FullPath() == "" {
			c.Next()
			return
		}

		policy, ok := m.policies.Lookup(c.Request.Method, c.FullPath())
		if !ok {
			log.Printf("no policy registered for %s %s, denying", c.Request.Method, c.FullPath())
			utils.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action")
			return
		}
		if policy.Public {
			c.Next()
			return
		}

		identity, err := m.authenticator.AuthenticateAccess(c.Request.Context(), accessTokenFrom(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		if err := m.guard.Check(c.Request.Context(), identity.User.ID, policy); err != nil {
			evt := event.NewAuthEvent(event.AccessDenied)
			evt.UserID = identity.User.ID
			evt.Operation = guard.OperationID(c.Request.Method, c.FullPath())
			evt.Reason = err.Error()
			meta := clientMeta(c)
			evt.IPAddress, evt.UserAgent = meta.IPAddress, meta.UserAgent
			m.publisher.Publish(c.Request.Context(), evt)

			abortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity the pipeline attached to the request.
func CurrentIdentity(c *gin.Context) (*services.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*services.Identity)
	return identity, ok
}

// accessTokenFrom prefers the Authorization header and falls back to the
// access cookie.
func accessTokenFrom(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return token
}

func clientMeta(c *gin.Context) models.ClientMeta {
	return models.ClientMeta{
		IPAddress: getClientIP(c),
		UserAgent: getDeviceInfo(c),
	}
}

// getDeviceInfo extracts device information from request
func getDeviceInfo(c *gin.Context) string {
	userAgent := c.GetHeader("User-Agent")
	if userAgent == "" {
		userAgent = "Unknown Device"
	}
	return userAgent
}

// getClientIP extracts client IP address
func getClientIP(c *gin.Context) string {
	// Check X-Forwarded-For header first (for load balancers/proxies)
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		// Take the first IP if multiple are present
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	// Fallback to RemoteAddr
	return c.ClientIP()
}
