// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/handler"
	"receipt-encoder/internal/middleware"
	"receipt-encoder/internal/receipt"
	"receipt-encoder/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config  *config.Config
	logger  *zap.Logger
	service *receipt.Service
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, service *receipt.Service) *Router {
	return &Router{
		config:  config,
		logger:  logger,
		service: service,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	receiptHandler := handler.NewReceiptHandler(r.service, r.config, r.logger)
	wsHandler := handler.NewWebSocketHandler(receiptHandler, &r.config.Security, r.logger)
	healthHandler := handler.NewHealthHandler(r.service, r.config, wsHandler.GetConnectionStats, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	r.addReceiptRoutes(apiV1, receiptHandler)
	r.addCatalogRoutes(apiV1)

	r.addWebSocketRoutes(router, wsHandler)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addReceiptRoutes sets up document encoding routes
func (r *Router) addReceiptRoutes(api *gin.RouterGroup, handler *handler.ReceiptHandler) {
	receipts := api.Group("/receipts")
	{
		receipts.POST("/encode", handler.Encode)
	}
}

// addCatalogRoutes sets up the read-only printer catalog
func (r *Router) addCatalogRoutes(api *gin.RouterGroup) {
	api.GET("/profiles", handler.ListProfiles)
	api.GET("/codepages", handler.ListCodepages)
	api.GET("/symbologies", handler.ListSymbologies)
	api.GET("/capabilities", handler.ListCapabilities)
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, handler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	{
		ws.GET("/receipts", handler.HandleReceiptConnection)
	}
}
