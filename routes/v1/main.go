package v1

import (
	"net/http"

	"rangeapi/handlers/auth"
	"rangeapi/handlers/challenges"
	"rangeapi/handlers/codes"
	"rangeapi/handlers/groups"
	"rangeapi/handlers/progress"
	"rangeapi/middleware"
	"rangeapi/services"

	"github.com/gin-gonic/gin"
)

// Register the endpoints for the v1 API
func Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Add metrics middleware to all routes
	v1.Use(middleware.MetricsMiddleware())

	rateLimiter := middleware.NewRateLimiter(10000, 1500)
	v1.Use(middleware.RateLimiterMiddleware(rateLimiter))

	RegisterPingRoutes(v1)

	lifecycle := services.NewLifecycle()

	auth.RegisterRoutes(v1)
	groups.RegisterRoutes(v1, lifecycle)
	codes.RegisterRoutes(v1, lifecycle)
	challenges.RegisterRoutes(v1, lifecycle)
	progress.RegisterRoutes(v1, lifecycle)

	// Register metrics endpoint
	RegisterMetricsRoutes(v1)
}

// RegisterPingRoutes registers the liveness probe
func RegisterPingRoutes(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}
