package router

import (
	"time"

	"vitalstore/internal/handler"
	"vitalstore/internal/metrics"
	"vitalstore/internal/middleware"
	"vitalstore/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	startTime := time.Now()
	router.Use(func(c *gin.Context) {
		c.Set("serverStartTime", startTime)
		c.Next()
	})

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, configManager)

	return router
}

// registerSystemRoutes registers system-level routes
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// registerAPIRoutes registers API routes
func registerAPIRoutes(
	router *gin.Engine,
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) {
	authHandler := middleware.Auth(configManager.GetAuthConfig())

	// The endpoints live both at the root and under /api.
	for _, group := range []*gin.RouterGroup{
		router.Group("/", authHandler),
		router.Group("/api", authHandler),
	} {
		group.GET("/data", serverHandler.GetData)
		group.GET("/zones", serverHandler.GetZones)
		group.GET("/users", serverHandler.ListUsers)
		group.GET("/adherence", serverHandler.GetAdherence)
	}
}
