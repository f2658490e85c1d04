package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/pkg/jwt"
	"github.com/d60-Lab/microblog/pkg/response"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// Auth 解析 Authorization: Bearer <token>；没有 token 视为匿名访问
func Auth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Unauthorized(c, "malformed authorization header")
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

// RequireAuth 必须登录
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			response.Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// UserID 当前用户 id，匿名为空串
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
