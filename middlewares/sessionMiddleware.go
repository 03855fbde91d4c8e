package middlewares

import (
	"net/http"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
	"github.com/adepafin/adepa_backend/utils"
	"github.com/gin-gonic/gin"
)

func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)

		if user, err := models.GetUserByUsername(ctx, username); err == nil && user != nil {
			ctx = utils.SetUserIdInContext(ctx, user.ID)
			ctx = utils.SetIsAdminInContext(ctx, user.Role == models.UserRoleAdmin)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
