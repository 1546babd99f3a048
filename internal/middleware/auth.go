package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"membership-api/internal/response"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards staff-only routes with the configured API key.
// With no key configured the routes are closed.
func AdminAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			logging.Warnf("Admin route %s called but ADMIN_API_KEY is not set", c.FullPath())
			response.AbortWithError(c, http.StatusServiceUnavailable, "Admin API is not configured")
			return
		}

		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Missing api key")
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			logging.Warnf("Invalid admin api key - path: %s, client_ip: %s", c.FullPath(), c.ClientIP())
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid api key")
			return
		}

		c.Set("request_time", time.Now())
		c.Next()
	}
}
