package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/api"
	"github.com/lemixologue/backend/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Cocktails *api.CocktailHandler
	Images    *api.ImageHandler
	Status    *api.StatusHandler
	Static    *api.StaticHandler
}

// Per-endpoint admission policies. Generation endpoints are the most
// expensive and get the tightest limits.
var (
	policyGenerate      = middleware.Policy{Name: "generate", Limit: 5, Window: 60 * time.Second}
	policyList          = middleware.Policy{Name: "list", Limit: 20, Window: 60 * time.Second}
	policyGet           = middleware.Policy{Name: "get", Limit: 30, Window: 60 * time.Second}
	policyStats         = middleware.Policy{Name: "stats", Limit: 20, Window: 60 * time.Second}
	policyDelete        = middleware.Policy{Name: "delete", Limit: 10, Window: 60 * time.Second}
	policyGenerateImage = middleware.Policy{Name: "generate_image", Limit: 3, Window: 60 * time.Second}
	policyStatic        = middleware.Policy{Name: "static", Limit: 50, Window: 60 * time.Second}
)

// New configures the application routes and middleware chain
func New(cfg *config.Config, h *Handlers, store middleware.LimiterStore, logger, seclog zerolog.Logger) *gin.Engine {
	if config.GetEnvironment() == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.Metrics())

	limit := func(p middleware.Policy) gin.HandlerFunc {
		return middleware.RateLimit(store, p, seclog)
	}

	router.GET("/health", h.Status.Health)
	router.GET("/metrics", middleware.MetricsHandler())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", h.Status.Status)

		cocktails := apiGroup.Group("/cocktails")
		{
			cocktails.POST("/generate", limit(policyGenerate), h.Cocktails.GenerateCocktail)
			cocktails.POST("/generate-image", limit(policyGenerateImage), h.Images.GenerateImage)
			cocktails.GET("", limit(policyList), h.Cocktails.ListCocktails)
			cocktails.GET("/stats", limit(policyStats), h.Cocktails.GetStats)
			cocktails.GET("/:id", limit(policyGet), h.Cocktails.GetCocktail)
			cocktails.DELETE("/:id", limit(policyDelete), h.Cocktails.DeleteCocktail)
		}
	}

	router.GET("/images/:filename", limit(policyStatic), h.Static.ServeImage)

	return router
}
