package middleware

import (
	"net/http"

	"accounthub/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequirePermission 按路由声明的权限集裁决访问。
func RequirePermission(required ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Authorize(required, Principal(c)) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden resource"})
			c.Abort()
			return
		}
		c.Next()
	}
}
