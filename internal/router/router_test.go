package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/api"
	"github.com/lemixologue/backend/internal/middleware"
	"github.com/lemixologue/backend/internal/model"
	"github.com/lemixologue/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Cocktail{}))

	imagesDir := t.TempDir()
	cfg := &config.Config{
		MistralBaseURL: "http://unused",
		ImageProvider:  service.ProviderNone,
		ImagesDir:      imagesDir,
		CORSOrigins:    []string{"http://localhost:5173"},
	}

	nop := zerolog.Nop()
	cocktails := service.NewCocktailService(db, imagesDir, nop, nop)
	llm := service.NewLLMService(cfg, nop)
	images := service.NewImageService(cfg, nil, nop)

	handlers := &Handlers{
		Cocktails: api.NewCocktailHandler(llm, cocktails, nop, nop),
		Images:    api.NewImageHandler(images, cocktails, nop),
		Status:    api.NewStatusHandler(db, images),
		Static:    api.NewStaticHandler(imagesDir, nop),
	}

	return New(cfg, handlers, middleware.NewMemoryStore(), nop, nop)
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouterMountsCoreRoutes(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/status").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/cocktails").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/cocktails/stats").Code)
	assert.Equal(t, http.StatusOK, get(r, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/nope").Code)
}

func TestRouterSetsSecurityHeaders(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/health")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouterEnforcesPerEndpointLimits(t *testing.T) {
	r := newTestRouter(t)

	// The image generation policy allows 3 requests per window. The
	// service is disabled in this setup so allowed calls return 400 for
	// the empty body, never 429.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/cocktails/generate-image", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "request %d should be admitted", i+1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/cocktails/generate-image", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))

	// Other endpoints for the same client keep their own budgets
	assert.Equal(t, http.StatusOK, get(r, "/api/cocktails").Code)
}

func TestStatsBudgetIndependentOfListing(t *testing.T) {
	r := newTestRouter(t)

	// Exhaust the listing budget until the client is blocked for it
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/api/cocktails").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/cocktails").Code)

	// Stats runs on its own bucket and stays reachable
	assert.Equal(t, http.StatusOK, get(r, "/api/cocktails/stats").Code)
}
