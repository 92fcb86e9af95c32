package middleware

import (
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/response"
	"Vitrin/internal/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 验证 JWT，检查黑名单，并把管理员身份写入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		revoked, err := redis.Exists(c.Request.Context(), consts.TokenBlacklistKey+signature)
		if err != nil {
			response.Fail(c, response.InternalServerError, "unexpected error")
			c.Abort()
			return
		}
		if revoked {
			response.Fail(c, response.Unauthorized, "token invalid or expired")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "token invalid or expired")
			c.Abort()
			return
		}

		c.Set("admin_id", claims.AdminID)
		c.Set("roles", claims.Roles)
		c.Set("token", tokenString)

		c.Next()
	}
}

// bearerToken 浏览器的 websocket 无法设置请求头，升级请求允许通过 query 传递
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		return token, token != ""
	}
	if authHeader == "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		token := c.Query("token")
		return token, token != ""
	}
	return "", false
}
