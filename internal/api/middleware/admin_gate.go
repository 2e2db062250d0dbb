package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeforge/internal/database"
)

// RequireAdminMiddleware 阻止非管理员访问管理接口。
// 仅依赖 access token 内的 permissions 声明，避免每次请求都查库。
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok || !claims.HasPermission(database.PermissionAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin permission required"})
			return
		}
		c.Next()
	}
}
