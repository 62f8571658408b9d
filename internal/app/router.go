package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/handler"
	"rideshare/internal/middleware"
	"rideshare/internal/ws"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	DispatchHandler *handler.DispatchHandler
	DriverHandler   *handler.DriverHandler
	WalletHandler   *handler.WalletHandler
	PricingHandler  *handler.PricingHandler
	Hub             *ws.Hub
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Open-trip feed.
	router.GET("/ws/trips", func(c *gin.Context) {
		ws.ServeWS(deps.Hub, c.Writer, c.Request)
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/open", deps.TripHandler.GetOpen)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.POST("/:id/accept", deps.TripHandler.Accept)
			trips.POST("/:id/pay", deps.TripHandler.Pay)
			trips.POST("/:id/start", deps.TripHandler.Start)
			trips.POST("/:id/complete", deps.TripHandler.Complete)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/location", deps.TripHandler.UpdateLocation)
			trips.GET("/:id/receipt", deps.TripHandler.Receipt)
		}

		// Driver-side search.
		dispatch := v1.Group("/dispatch")
		{
			dispatch.GET("/search", deps.DispatchHandler.Search)
		}

		// Driver presence routes.
		drivers := v1.Group("/drivers")
		{
			drivers.GET("/nearby", deps.DriverHandler.Nearby)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.POST("/:id/offline", deps.DriverHandler.SetOffline)
		}

		// Wallet routes.
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/entries/:id", deps.WalletHandler.GetEntry)
			wallets.POST("/entries/:id/refund", deps.WalletHandler.Refund)
			wallets.GET("/:owner_id", deps.WalletHandler.GetBalance)
			wallets.GET("/:owner_id/entries", deps.WalletHandler.GetHistory)
			wallets.POST("/:owner_id/topup", deps.WalletHandler.TopUp)
		}

		// Pricing routes.
		pricing := v1.Group("/pricing")
		{
			pricing.POST("/quote", deps.PricingHandler.Quote)
			pricing.GET("/surge", deps.PricingHandler.Surge)
		}
	}

	return router
}
