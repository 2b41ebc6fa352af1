// internal/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/receipt"
	"receipt-encoder/internal/utils"
)

// smokeDocument is encoded by the health checks with both renderers
var smokeDocument = []receipt.Command{
	{Op: receipt.OpLine, Text: "ok"},
	{Op: receipt.OpCutPartial},
}

// HealthHandler handles health check requests
type HealthHandler struct {
	service   *receipt.Service
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
	stats     func() *ConnectionStats
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(service *receipt.Service, config *config.Config, stats func() *ConnectionStats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service:   service,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
		stats:     stats,
	}
}

// HealthCheck encodes a small document with each renderer and reports the
// result
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	for _, renderer := range []receipt.Renderer{receipt.RendererESCPOS, receipt.RendererCanvas} {
		check := h.encodeCheck(c.Request.Context(), renderer)
		if check.Status != "healthy" {
			health.Status = "unhealthy"
		}
		health.Checks[string(renderer)] = check
	}

	if h.stats != nil {
		stats := h.stats()
		health.Checks["websocket"] = CheckResult{
			Status: "healthy",
			Data: map[string]interface{}{
				"connections": stats.TotalConnections,
			},
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

func (h *HealthHandler) encodeCheck(ctx context.Context, renderer receipt.Renderer) CheckResult {
	startTime := time.Now()
	res, err := h.service.Encode(ctx, &receipt.Document{Renderer: renderer, Commands: smokeDocument})
	if err != nil {
		h.logger.Error("Encoder health check failed", zap.String("renderer", string(renderer)), zap.Error(err))
		return CheckResult{Status: "unhealthy", Message: err.Error()}
	}

	return CheckResult{
		Status:  "healthy",
		Message: "Encoder OK",
		Data: map[string]interface{}{
			"bytes":            res.Size,
			"response_time_ms": time.Since(startTime).Milliseconds(),
		},
	}
}

// ReadinessCheck reports ready once the printer-font renderer works
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if check := h.encodeCheck(c.Request.Context(), receipt.RendererESCPOS); check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": check.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
