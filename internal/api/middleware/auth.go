package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/domain"
)

const PrincipalContextKey = "principal"

// TokenAuthenticator resolves a session token to its principal
type TokenAuthenticator interface {
	Authenticate(token string) (*auth.Principal, error)
}

// AuthMiddleware authenticates requests using the session cookie or a Bearer token
func AuthMiddleware(authenticator TokenAuthenticator, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
			return
		}

		principal, err := authenticator.Authenticate(token)
		if err != nil {
			logger.Debug("Rejected session token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session", "code": "unauthorized"})
			return
		}

		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

// sessionToken prefers the Authorization header over the cookie
func sessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireRole lets the request through only when the principal holds one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		principal, ok := GetPrincipalFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
			return
		}
		if !allowed[principal.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// GetPrincipalFromContext retrieves the authenticated principal from the Gin context
func GetPrincipalFromContext(c *gin.Context) (*auth.Principal, bool) {
	principal, exists := c.Get(PrincipalContextKey)
	if !exists {
		return nil, false
	}

	p, ok := principal.(*auth.Principal)
	return p, ok
}
