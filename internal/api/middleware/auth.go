package middleware

import (
	"strings"

	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer credential through an IdentityResolver.
// The resolver decides whether the credential is an opaque session token or a
// JWT access token; handlers only see the user id.
func AuthMiddleware(resolver services.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		credential := parts[1]

		userID, ok := resolver.Resolve(credential)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("credential", credential)

		c.Next()
	}
}

// RequireRole aborts with 403 when the authenticated user's role ranks below
// the required one. 401 means no identity; 403 means identity known but
// insufficient.
func RequireRole(perms *services.PermissionService, required services.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if err := perms.RequireRole(userID.(uint), required); err != nil {
			c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
