package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lemixologue/backend/internal/database"
	"github.com/lemixologue/backend/internal/service"
)

// StatusHandler serves liveness and capability endpoints
type StatusHandler struct {
	db     *gorm.DB
	images *service.ImageService
}

func NewStatusHandler(db *gorm.DB, images *service.ImageService) *StatusHandler {
	return &StatusHandler{db: db, images: images}
}

// Health handles GET /health
func (h *StatusHandler) Health(c *gin.Context) {
	if err := database.HealthCheck(c.Request.Context(), h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"database":  "unreachable",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status handles GET /api/status and reports optional capabilities so
// the frontend can hide the image button when generation is off.
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                  "ok",
		"image_service_available": h.images.Available(),
		"image_service_type":      h.images.ProviderType(),
	})
}
