package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRoles    = "roles"
)

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRoles, claims.Roles)

		c.Next()
	}
}

// PermissionRequired rejects requests whose actor lacks the capability.
// Service methods re-check on their own; this only short-circuits obvious
// denials before any handler work.
func PermissionRequired(gate *permissions.Gate, perm permissions.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if !gate.HasPermission(actor.Roles, perm) {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing permission " + string(perm)})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor builds the acting identity from the authenticated context.
func CurrentActor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:    GetUserID(c),
		Roles: permissions.ParseRoles(GetRoles(c)),
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// GetRoles gets the current user's comma-separated role list from context
func GetRoles(c *gin.Context) string {
	if roles, exists := c.Get(ContextRoles); exists {
		return roles.(string)
	}
	return ""
}
