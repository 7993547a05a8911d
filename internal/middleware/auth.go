// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mustafamaahir/Meeting-Minutes/internal/service"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/database"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

// AuthMiddleware authenticates requests via the Authorization header. It
// rejects blacklisted (logged-out) tokens, verifies the JWT and loads the
// full User record into the context for the handlers downstream.
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Missing authorization header",
			})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid authorization header format",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		// Logged-out tokens sit on the Redis blacklist until they expire.
		blacklisted, err := database.RDB.Exists(c.Request.Context(), "blacklist:"+tokenString).Result()
		if err != nil {
			log.Warnf("[Auth] blacklist lookup failed, continuing with verification: %v", err)
		} else if blacklisted > 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid token",
			})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			message := "Invalid token"
			if strings.Contains(err.Error(), "expired") {
				message = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": message,
			})
			return
		}

		// A token can outlive its account; reject if the user is gone.
		user, err := userService.GetProfile(claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "User not found",
			})
			return
		}

		c.Set("user", user)
		c.Set("claims", claims)

		c.Next()
	}
}
