package middlewares

import (
	"net/http"

	"github.com/Eisman15/donation/models"
	"github.com/gin-gonic/gin"
)

func RequireDonorOrAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get("user")
		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
			return
		}

		user, ok := value.(models.User)
		if !ok || (user.Role != models.RoleDonor && user.Role != models.RoleAdmin) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Donor or admin privileges required."})
			return
		}

		ctx.Next()
	}
}
