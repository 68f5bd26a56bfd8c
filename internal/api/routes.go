package api

import (
	"github.com/ajharbinger/scoring-api/internal/auth"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
	"github.com/ajharbinger/scoring-api/internal/middleware"
	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/ajharbinger/scoring-api/internal/upstream"
	"github.com/ajharbinger/scoring-api/pkg/config"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer needs
type Dependencies struct {
	Config   *config.Config
	Services *services.Services
	Auth     services.AuthService
	JWT      *auth.JWTService // nil disables bearer tokens
	Metrics  *metrics.Collector
	DB       HealthChecker // nil when no database is configured
	Upstream *upstream.HealthMonitor
	Logger   logger.Logger
}

// NewRouter builds a gin engine with the standard middleware chain and all routes
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(deps.Config))
	r.Use(middleware.InputValidationMiddleware(deps.Config.MaxRequestSize))
	if deps.Config.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(deps.Config.RateLimitPerMinute))
	}

	SetupRoutes(r, deps)
	return r
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	scoringHandler := NewScoringHandler(deps.Services.Scoring, deps.Logger, cfg.LimitAmount, cfg.RequireClientSelector)
	clientHandler := NewClientHandler(deps.Services.Clients, deps.Logger)
	healthHandler := NewHealthHandler(deps.Services.Scoring, deps.DB, deps.Upstream)

	// Public routes
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Auth != nil && deps.JWT != nil {
		authHandler := NewAuthHandler(deps.Auth, deps.Logger)
		r.POST("/api/v1/auth/token", authHandler.Token)
	}

	requireAuth := auth.RequireAuth(auth.Credentials{
		Username: cfg.APIUsername,
		Password: cfg.APIPassword,
	}, deps.JWT)

	// Protected routes
	protected := r.Group("/")
	protected.Use(requireAuth)
	{
		protected.GET("/scoring/initiate/", scoringHandler.Initiate)
		protected.GET("/scoring/initiate/:customerNumber", scoringHandler.Initiate)
		protected.GET("/scoring/status/:token", scoringHandler.Status)
		protected.POST("/client/register", clientHandler.Register)
	}

	v1 := r.Group("/api/v1")
	v1.Use(requireAuth)
	{
		v1.GET("/scoring/initiateQueryScore/", scoringHandler.Initiate)
		v1.GET("/scoring/initiateQueryScore/:customerNumber", scoringHandler.Initiate)
		v1.GET("/scoring/queryScore/:token", scoringHandler.Status)
		v1.POST("/client/createClient", clientHandler.Register)
		v1.GET("/client/clients", clientHandler.List)
	}
}
