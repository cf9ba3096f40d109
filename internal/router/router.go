package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "contractlens/docs"
	"contractlens/internal/config"
	"contractlens/internal/handler"
	"contractlens/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	contractH *handler.ContractHandler,
	runH *handler.RunHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Multipart bodies beyond this are spooled to disk by net/http.
	r.MaxMultipartMemory = (cfg.Limits.MaxUploadMB + 1) << 20

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Bearer auth is enforced only when a signing secret is configured.
	var validator *middleware.TokenValidator
	if cfg.Auth.Enabled() {
		validator = middleware.NewTokenValidator(cfg.Auth)
	}

	contracts := v1.Group("/contracts")
	contracts.Use(middleware.AuthMiddleware(validator))
	contracts.POST("/analyze", contractH.Analyze)
	contracts.POST("/humanize", contractH.Humanize)

	// Run history exists only when a database is configured.
	if runH != nil {
		runs := v1.Group("/runs")
		runs.Use(middleware.AuthMiddleware(validator))
		runs.GET("", runH.List)
		runs.GET("/:id", runH.GetByID)
	}

	return r
}
