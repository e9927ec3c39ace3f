package middleware

import (
	"net/http"
	"strings"

	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts a gateway session token and exposes its claims
// as "session_id" and "telegram_id".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("session_id", claims.SessionID)
		c.Set("telegram_id", claims.TelegramID)
		c.Next()
	}
}
