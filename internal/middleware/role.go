package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
)

// RequireRoles restricts a route group to users holding one of the given
// roles. Must run after AuthMiddleware, which puts the user in the context.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userValue, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "User context missing",
			})
			return
		}

		currentUser, ok := userValue.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Invalid user context",
			})
			return
		}

		for _, role := range roles {
			if currentUser.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": "Insufficient permissions",
		})
	}
}
