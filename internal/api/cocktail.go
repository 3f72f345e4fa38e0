package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/internal/middleware"
	"github.com/lemixologue/backend/internal/security"
	"github.com/lemixologue/backend/internal/service"
)

// CocktailHandler serves the cocktail generation and history endpoints
type CocktailHandler struct {
	llm       *service.LLMService
	cocktails *service.CocktailService
	logger    zerolog.Logger
	seclog    zerolog.Logger
}

func NewCocktailHandler(llm *service.LLMService, cocktails *service.CocktailService, logger, seclog zerolog.Logger) *CocktailHandler {
	return &CocktailHandler{
		llm:       llm,
		cocktails: cocktails,
		logger:    logger,
		seclog:    seclog,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateCocktail handles POST /api/cocktails/generate: sanitize the
// free-text prompt, ask the LLM for a sheet, persist it.
func (h *CocktailHandler) GenerateCocktail(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a JSON body with a prompt field is required"})
		return
	}

	prompt, err := security.SanitizePrompt(req.Prompt)
	if err != nil {
		h.seclog.Warn().
			Str("event", "prompt_rejected").
			Str("client", middleware.ClientIdentity(c)).
			Str("reason", err.Error()).
			Msg("prompt failed validation")
		middleware.RecordSecurityEvent("prompt_rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := h.llm.GenerateCocktail(c.Request.Context(), prompt)
	if err != nil {
		h.logger.Error().Err(err).Msg("cocktail generation failed")
		serverError(c, "cocktail generation is temporarily unavailable")
		return
	}

	cocktail, err := h.cocktails.Create(c.Request.Context(), sheet, prompt)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to persist cocktail")
		serverError(c, "failed to save the cocktail")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"cocktail": cocktail,
	})
}

// ListCocktails handles GET /api/cocktails with page, per_page and q
// query parameters. Pagination input never fails, it is clamped.
func (h *CocktailHandler) ListCocktails(c *gin.Context) {
	page, perPage := security.ValidatePagination(c.Query("page"), c.Query("per_page"))

	result, err := h.cocktails.List(c.Request.Context(), page, perPage, c.Query("q"))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list cocktails")
		serverError(c, "failed to fetch cocktails")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCocktail handles GET /api/cocktails/:id
func (h *CocktailHandler) GetCocktail(c *gin.Context) {
	id, err := security.ValidateID(c.Param("id"))
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
		h.logger.Error().Err(err).Int64("id", id).Msg("failed to fetch cocktail")
		serverError(c, "failed to fetch cocktail")
		return
	}

	c.JSON(http.StatusOK, cocktail)
}

// DeleteCocktail handles DELETE /api/cocktails/:id
func (h *CocktailHandler) DeleteCocktail(c *gin.Context) {
	id, err := security.ValidateID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.cocktails.Delete(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cocktail not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("failed to delete cocktail")
		serverError(c, "failed to delete cocktail")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_id": id})
}

// GetStats handles GET /api/cocktails/stats
func (h *CocktailHandler) GetStats(c *gin.Context) {
	stats, err := h.cocktails.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute stats")
		serverError(c, "failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
