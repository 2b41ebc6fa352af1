// internal/handler/receipt_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/middleware"
	"receipt-encoder/internal/receipt"
	"receipt-encoder/internal/utils"
)

const mimeOctetStream = "application/octet-stream"

// ReceiptHandler turns JSON documents into printer bytes
type ReceiptHandler struct {
	service *receipt.Service
	config  *config.Config
	logger  *utils.ServiceLogger
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(service *receipt.Service, config *config.Config, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		service: service,
		config:  config,
		logger:  utils.NewServiceLogger(logger, "receipt-handler"),
	}
}

// EncodeResponse is the JSON body of a successful encode
type EncodeResponse struct {
	JobID      string           `json:"job_id"`
	Renderer   receipt.Renderer `json:"renderer"`
	Size       int              `json:"size"`
	DurationMS int64            `json:"duration_ms"`
	Payload    []byte           `json:"payload"`
}

// Encode encodes the posted document. Clients sending
// Accept: application/octet-stream get the raw bytes.
func (h *ReceiptHandler) Encode(c *gin.Context) {
	if limit := h.config.Security.MaxDocumentBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var doc receipt.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Document too large", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid document", err)
		return
	}

	result, err := h.service.Encode(c.Request.Context(), &doc)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header(middleware.JobIDHeader, result.JobID)
	if strings.Contains(c.GetHeader("Accept"), mimeOctetStream) ||
		strings.Contains(c.GetHeader("Accept"), "application/vnd.escpos") {
		c.Data(http.StatusOK, mimeOctetStream, result.Bytes)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Document encoded", &EncodeResponse{
		JobID:      result.JobID,
		Renderer:   result.Renderer,
		Size:       result.Size,
		DurationMS: result.Duration.Milliseconds(),
		Payload:    result.Bytes,
	})
}

// respondError maps encoder errors to HTTP statuses
func (h *ReceiptHandler) respondError(c *gin.Context, err error) {
	var cmdErr *receipt.CommandError
	switch {
	case errors.As(err, &cmdErr) && receipt.IsClientError(err):
		utils.CommandErrorResponse(c, cmdErr.Index, cmdErr.Err)
	case receipt.IsClientError(err):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid document", err)
	case errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "Encoding timed out", err)
	case errors.Is(err, context.Canceled):
		utils.ErrorResponse(c, http.StatusRequestTimeout, "Request canceled", err)
	default:
		logger := utils.LoggerWithRequestID(h.logger.Logger, c.GetString(middleware.RequestIDKey))
		utils.LogError(logger, "Failed to encode document", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to encode document", err)
	}
}

// encodeTimeout bounds one WebSocket document; HTTP requests rely on the
// request context instead
func (h *ReceiptHandler) encodeTimeout() time.Duration {
	if t := h.config.Printer.JobTimeout; t > 0 {
		return t
	}
	return 30 * time.Second
}
