package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/punktual/backend/internal/auth"
	"github.com/punktual/backend/internal/model"
)

// VerifyCSRF checks the double-submit token on state-changing requests:
// the X-CSRF-Token header must hash to the value held in the httpOnly
// cookie issued by the CSRF endpoint. Safe methods pass through.
func VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		storedHash, err := c.Cookie(auth.CSRFHashCookie)
		if err != nil {
			abortForbidden(c, "Missing CSRF cookie")
			return
		}

		token := c.GetHeader(auth.CSRFHeader)
		if !auth.VerifyCSRFToken(token, storedHash) {
			abortForbidden(c, "Invalid CSRF token")
			return
		}

		c.Next()
	}
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{
		Error:   http.StatusText(http.StatusForbidden),
		Message: message,
	})
}
