package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// serverError writes the generic 500 envelope: a fixed message plus a
// server-side timestamp, the same shape the panic handler produces.
// Internal details never reach the client.
func serverError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
