package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const addressKey = "address"

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			log.Printf("[Auth] Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(addressKey, common.HexToAddress(claims.Address))
		c.Next()
	}
}

// GovernanceOnly rejects callers other than the governance address. It must
// run after AuthMiddleware.
func GovernanceOnly(governance common.Address) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, ok := GetAddress(c)
		if !ok || addr != governance {
			c.JSON(http.StatusForbidden, gin.H{"error": "governance access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAddress retrieves the authenticated wallet address from the context
func GetAddress(c *gin.Context) (common.Address, bool) {
	value, exists := c.Get(addressKey)
	if !exists {
		return common.Address{}, false
	}

	addr, ok := value.(common.Address)
	return addr, ok
}
