package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/poolscout/poolscout/internal/api/handlers"
	"github.com/poolscout/poolscout/internal/middleware"
)

// SetupRoutes wires the HTTP surface. Copy-trading mutations require a JWT;
// reads and the scan pipeline are open to internal collaborators.
func SetupRoutes(
	router *gin.Engine,
	health *handlers.HealthHandler,
	engine *handlers.EngineHandler,
	copyTrading *handlers.CopyTradingHandler,
	auth *middleware.AuthMiddleware,
) {
	router.Use(otelgin.Middleware("poolscout"))

	router.GET("/health", health.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", engine.Scan)

		pools := v1.Group("/pools")
		{
			pools.GET("/:address/prediction", engine.GetPrediction)
			pools.POST("/:address/datapoints", engine.IngestDataPoints)
		}

		v1.GET("/strategy/latest", engine.GetLatestStrategy)

		copy := v1.Group("/copy-trading")
		{
			copy.POST("/traders", copyTrading.RegisterTrader)
			copy.GET("/leaderboard", copyTrading.Leaderboard)

			protected := copy.Group("")
			protected.Use(auth.RequireAuth())
			{
				protected.POST("/follow", copyTrading.FollowTrader)
				protected.POST("/unfollow", copyTrading.UnfollowTrader)
				protected.POST("/orders", copyTrading.CopyOrder)
				protected.POST("/orders/:id/execution", copyTrading.RecordExecution)
			}
		}
	}
}
