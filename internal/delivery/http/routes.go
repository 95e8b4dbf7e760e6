package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealsnap/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestLoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		meals := v1.Group("/meals")
		{
			meals.GET("", handler.ListMeals)
			meals.POST("", handler.AddMeal)
			meals.POST("/analyze", handler.AnalyzeMeal)
			meals.DELETE("/:id", handler.DeleteMeal)
		}

		v1.GET("/summary", handler.GetSummary)
		v1.GET("/goals", handler.GetGoals)
		v1.PUT("/goals", handler.SaveGoals)
		v1.GET("/state", handler.GetState)
		v1.POST("/data/clear", handler.ClearData)
	}

	return router
}
