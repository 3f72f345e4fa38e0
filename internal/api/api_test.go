package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/model"
	"github.com/lemixologue/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires the handlers against an in-memory database and a fake
// upstream API.
type testEnv struct {
	db        *gorm.DB
	router    *gin.Engine
	cocktails *service.CocktailService
	imagesDir string
}

func newTestEnv(t *testing.T, upstreamURL string, imageProvider string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Cocktail{}))

	imagesDir := t.TempDir()
	cfg := &config.Config{
		MistralAPIKey:  "test-key",
		MistralModel:   "mistral-small-latest",
		MistralBaseURL: upstreamURL,
		ImageProvider:  imageProvider,
		ImagesDir:      imagesDir,
	}

	nop := zerolog.Nop()
	cocktails := service.NewCocktailService(db, imagesDir, nop, nop)
	llm := service.NewLLMService(cfg, nop)
	images := service.NewImageService(cfg, nil, nop)

	cocktailHandler := NewCocktailHandler(llm, cocktails, nop, nop)
	imageHandler := NewImageHandler(images, cocktails, nop)
	statusHandler := NewStatusHandler(db, images)
	staticHandler := NewStaticHandler(imagesDir, nop)

	r := gin.New()
	r.GET("/health", statusHandler.Health)
	r.GET("/api/status", statusHandler.Status)
	r.POST("/api/cocktails/generate", cocktailHandler.GenerateCocktail)
	r.GET("/api/cocktails", cocktailHandler.ListCocktails)
	r.GET("/api/cocktails/stats", cocktailHandler.GetStats)
	r.GET("/api/cocktails/:id", cocktailHandler.GetCocktail)
	r.DELETE("/api/cocktails/:id", cocktailHandler.DeleteCocktail)
	r.POST("/api/cocktails/generate-image", imageHandler.GenerateImage)
	r.GET("/images/:filename", staticHandler.ServeImage)

	return &testEnv{db: db, router: r, cocktails: cocktails, imagesDir: imagesDir}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
