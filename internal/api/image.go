package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/internal/security"
	"github.com/lemixologue/backend/internal/service"
)

// ImageHandler serves image generation for existing cocktails
type ImageHandler struct {
	images    *service.ImageService
	cocktails *service.CocktailService
	logger    zerolog.Logger
}

func NewImageHandler(images *service.ImageService, cocktails *service.CocktailService, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{images: images, cocktails: cocktails, logger: logger}
}

type generateImageRequest struct {
	CocktailID int64 `json:"cocktail_id"`
}

// GenerateImage handles POST /api/cocktails/generate-image: look up the
// cocktail, run the image pipeline on its stored image prompt and record
// the resulting path.
func (h *ImageHandler) GenerateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a JSON body with a cocktail_id field is required"})
		return
	}

	id, err := security.ValidateID(strconv.FormatInt(req.CocktailID, 10))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cocktail, err := h.cocktails.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cocktail not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("failed to fetch cocktail for image generation")
		serverError(c, "failed to fetch cocktail")
		return
	}

	// The pipeline reports every failure mode as unavailability
	imagePath, err := h.images.GenerateCocktailImage(c.Request.Context(), cocktail.ImagePrompt)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("image generation unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image generation is not available"})
		return
	}

	// The image exists on disk at this point; a failed path update should
	// not discard it from the response.
	if err := h.cocktails.SetImagePath(c.Request.Context(), id, imagePath); err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to record image path")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"image_url":     imagePath,
		"cocktail_id":   id,
		"cocktail_name": cocktail.Name,
	})
}
