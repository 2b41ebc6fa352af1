// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-encoder/internal/utils"
)

// RecoveryMiddleware turns a panic in a handler into a 500 envelope. A
// response that already started streaming printer bytes is cut short
// instead, since a JSON body appended to it would reach the printer.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.LoggerWithRequestID(logger, c.GetString(RequestIDKey)).Error("Panic while serving request",
			zap.Any("panic", recovered),
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Bool("response_started", c.Writer.Written()),
			zap.Stack("stacktrace"),
		)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.Writer.Header().Del(JobIDHeader)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Encoder failed unexpectedly", nil)
	})
}
