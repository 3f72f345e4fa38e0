package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/internal/middleware"
	"github.com/lemixologue/backend/internal/security"
)

// StaticHandler serves generated cocktail images from the images
// directory. Every requested filename passes the traversal guard before
// it is joined onto the directory.
type StaticHandler struct {
	imagesDir string
	seclog    zerolog.Logger
}

func NewStaticHandler(imagesDir string, seclog zerolog.Logger) *StaticHandler {
	return &StaticHandler{imagesDir: imagesDir, seclog: seclog}
}

// ServeImage handles GET /images/:filename
func (h *StaticHandler) ServeImage(c *gin.Context) {
	name := c.Param("filename")

	if !security.IsAllowedImageName(name) {
		h.seclog.Warn().
			Str("event", "path_traversal_attempt").
			Str("client", middleware.ClientIdentity(c)).
			Str("requested", name).
			Msg("rejected image request")
		middleware.RecordSecurityEvent("path_traversal_attempt")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image name"})
		return
	}

	path := filepath.Join(h.imagesDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	c.File(path)
}
