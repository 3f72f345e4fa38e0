package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorHandler converts panics anywhere in a request path into a generic
// 500 response. The full error is logged server-side; the client only
// sees a fixed message and a timestamp, never exception details.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("recovered from panic in request handler")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "an internal error occurred",
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
			}
		}()

		c.Next()
	}
}
