// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope wraps every JSON body the service writes. Raw printer bytes are
// written without it.
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError describes why a document was not encoded. Command is the index
// of the failing command when the encoder rejected one.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Command *int   `json:"command,omitempty"`
}

var errorCodes = map[int]string{
	http.StatusBadRequest:            "BAD_REQUEST",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusRequestTimeout:        "REQUEST_CANCELED",
	http.StatusRequestEntityTooLarge: "DOCUMENT_TOO_LARGE",
	http.StatusUnprocessableEntity:   "INVALID_DOCUMENT",
	http.StatusInternalServerError:   "ENCODER_FAILURE",
	http.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
	http.StatusGatewayTimeout:        "ENCODE_TIMEOUT",
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	writeEnvelope(c, statusCode, Envelope{Success: true, Message: message, Data: data})
}

// ErrorResponse sends an error response. The cause of a 500 stays in the
// log; clients only see the message.
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	apiError := &APIError{Code: errorCode(statusCode), Message: message}
	if err != nil && statusCode != http.StatusInternalServerError {
		apiError.Details = err.Error()
	}
	writeEnvelope(c, statusCode, Envelope{Message: message, Error: apiError})
}

// CommandErrorResponse reports the command that stopped a document
func CommandErrorResponse(c *gin.Context, index int, err error) {
	writeEnvelope(c, http.StatusBadRequest, Envelope{
		Message: "Command rejected",
		Error: &APIError{
			Code:    "INVALID_COMMAND",
			Message: "Document validation failed",
			Details: err.Error(),
			Command: &index,
		},
	})
}

func writeEnvelope(c *gin.Context, statusCode int, env Envelope) {
	env.Timestamp = time.Now()
	env.RequestID = c.GetString("request_id")
	c.JSON(statusCode, env)
}

func errorCode(statusCode int) string {
	if code, ok := errorCodes[statusCode]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}
