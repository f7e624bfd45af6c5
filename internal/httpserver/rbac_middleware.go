package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/pkg/rbac"
)

// RequirePermission rejects callers whose role does not grant permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "user not authenticated"}})
			return
		}

		uid, ok := userID.(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "internal", "message": "invalid user_id"}})
			return
		}

		role := c.GetString("role")
		if err := rbac.CheckPermission(uid, role, permission); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "forbidden", "message": err.Error()}})
			return
		}

		c.Next()
	}
}
