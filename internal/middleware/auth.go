package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/punktual/backend/internal/auth"
	"github.com/punktual/backend/internal/model"
)

// Context keys set by the auth middleware.
const (
	UserIDKey = "user_id"
	EmailKey  = "user_email"
)

// RequireAuth validates the Bearer token and stores the caller's identity in
// the request context. Unauthenticated requests get a 401 with a structured
// error body.
func RequireAuth(manager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := manager.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when the request is
// anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: message,
	})
}
