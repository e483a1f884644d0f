package middlewares

import (
	"net/http"
	"strings"

	"nutrilog/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxEmail  = "email"
)

// AuthMiddleware verifies an HS256 bearer token and stores its subject as the user id.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		// browsers cannot set headers on websocket upgrades
		if authHeader == "" && c.Query("token") != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			tokenString = c.Query("token")
		} else if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured: JWT_SECRET not set"})
			return
		}

		claims, err := utils.ParseJWT(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, claims.Subject)
		if claims.Email != "" {
			c.Set(ctxEmail, claims.Email)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Email returns the email claim of the bearer token, if any.
func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
