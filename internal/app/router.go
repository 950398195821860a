package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	dispatchredis "dispatch/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CompanyHandler *handler.CompanyHandler
	RiderHandler   *handler.RiderHandler
	OrderHandler   *handler.OrderHandler
	LegacyHandler  *handler.LegacyHandler
	FeedHandler    *handler.FeedHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *zap.Logger
	RateLimitRPS   int
	CORSOrigins    []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.RequestLoggerMiddleware(deps.Logger))
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicErrorsMiddleware())
	}

	// Health and metrics sit outside rate limiting.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	if deps.RedisClient != nil {
		api.Use(middleware.RateLimitMiddleware(deps.RedisClient, deps.RateLimitRPS, deps.Logger))
		api.Use(middleware.IdempotencyMiddleware(dispatchredis.NewIdempotencyStore(deps.RedisClient), deps.Logger))
	}

	// API v1 routes.
	v1 := api.Group("/v1")
	{
		companies := v1.Group("/companies")
		{
			companies.POST("", deps.CompanyHandler.Register)
			companies.GET("", deps.CompanyHandler.GetAll)
			companies.GET("/:id", deps.CompanyHandler.Get)
			companies.GET("/:id/riders", deps.CompanyHandler.GetRiders)
			companies.GET("/:id/orders", deps.CompanyHandler.GetOrders)
		}

		riders := v1.Group("/riders")
		{
			riders.POST("", deps.RiderHandler.Register)
			riders.GET("", deps.RiderHandler.GetAll)
			riders.GET("/nearby", deps.RiderHandler.Nearby)
			riders.GET("/:id", deps.RiderHandler.Get)
			riders.POST("/:id/availability", deps.RiderHandler.SetAvailability)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.Place)
			orders.GET("", deps.OrderHandler.GetAll)
			orders.GET("/:id", deps.OrderHandler.Get)
			orders.POST("/:id/assign", deps.OrderHandler.Assign)
			orders.POST("/:id/complete", deps.OrderHandler.Complete)
			orders.POST("/:id/cancel", deps.OrderHandler.Cancel)
		}

		if deps.FeedHandler != nil {
			v1.GET("/ws/orders", deps.FeedHandler.Orders)
		}
	}

	// Route shapes of the legacy web frontend.
	legacy := api.Group("/api")
	{
		legacy.GET("/companies/get-all", deps.LegacyHandler.GetCompanies)
		legacy.POST("/companies/register", deps.LegacyHandler.RegisterCompany)
		legacy.POST("/companies/new", deps.LegacyHandler.NewCompany)
		legacy.GET("/dispatch-riders/get-all", deps.LegacyHandler.GetRiders)
		legacy.POST("/dispatch-riders/register", deps.LegacyHandler.RegisterRider)
		legacy.POST("/dispatch-riders/order", deps.LegacyHandler.OrderRider)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", middleware.HeaderXRequestID},
		ExposeHeaders: []string{middleware.HeaderXRequestID, "Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
