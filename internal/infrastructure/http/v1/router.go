// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/grn"
	"stockroom/internal/domain/receipt"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/http/v1/middleware"
	"stockroom/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Receipts drives receiving sessions
	Receipts *receipt.Service

	// Notes serves created goods-received notes
	Notes *grn.Service

	// SessionBackend names the session store, reported by /health/info
	SessionBackend string

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.SessionBackend, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Operator())
	{
		baseHandler := handlers.NewBaseHandler()

		receivingHandler := handlers.NewReceivingHandler(baseHandler, cfg.Receipts)
		receivingHandler.RegisterRoutes(v1.Group("/receiving"))

		if cfg.Notes != nil {
			grnHandler := handlers.NewGRNHandler(baseHandler, cfg.Notes)
			v1.GET("/receipts/:id", grnHandler.Get)
		}
	}

	return router
}
